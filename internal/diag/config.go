package diag

import (
	"path"
	"slices"
)

// Config decides which diagnostics reach the output and at what severity.
type Config struct {
	// MinSeverity drops diagnostics below this level after overrides.
	MinSeverity Severity

	// Overrides change severity per code ID, e.g. "LNT4001": SevHint.
	Overrides map[string]Severity

	// Ignore suppresses code IDs; glob patterns such as "STY*" are allowed.
	Ignore []string

	// WarningsAsErrors promotes every warning to an error.
	WarningsAsErrors bool
}

// DefaultConfig reports everything unchanged.
func DefaultConfig() Config {
	return Config{MinSeverity: SevHint}
}

// Apply returns the effective diagnostic and whether it should be reported.
func (c Config) Apply(d Diagnostic) (Diagnostic, bool) {
	id := d.Code.ID()
	if slices.ContainsFunc(c.Ignore, func(pattern string) bool {
		ok, err := path.Match(pattern, id)
		return err == nil && ok
	}) {
		return d, false
	}
	if override, ok := c.Overrides[id]; ok {
		d.Severity = override
	}
	if c.WarningsAsErrors && d.Severity == SevWarning {
		d.Severity = SevError
	}
	return d, d.Severity >= c.MinSeverity
}

// FilterReporter applies a Config before forwarding.
type FilterReporter struct {
	Config Config
	Next   Reporter
}

func (r FilterReporter) Report(d Diagnostic) {
	if r.Next == nil {
		return
	}
	if d, ok := r.Config.Apply(d); ok {
		r.Next.Report(d)
	}
}
