package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevHint marks style suggestions.
	SevHint Severity = iota
	// SevWarning marks suspicious but valid quest code.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevHint:
		return "HINT"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the lower- or upper-case names used in configuration.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hint", "info":
		return SevHint, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevHint, fmt.Errorf("invalid severity %q (expected hint|warning|error)", s)
}
