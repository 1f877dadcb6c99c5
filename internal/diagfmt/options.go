package diagfmt

import (
	"fmt"
	"strings"
)

// Format selects the renderer used by `dftemplate diag`.
type Format uint8

const (
	FormatPretty Format = iota
	FormatShort
	FormatJSON
	FormatSarif
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSarif, nil
	}
	return FormatPretty, fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", s)
}

func (f Format) String() string {
	switch f {
	case FormatShort:
		return "short"
	case FormatJSON:
		return "json"
	case FormatSarif:
		return "sarif"
	}
	return "pretty"
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color       bool
	Context     int8
	PathMode    PathMode
	Width       uint8 // максимальная ширина строки, 0 - не ограничено
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
