package diag

import (
	"dftemplate/internal/source"
)

// Note points at a secondary location relevant to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the text under Span.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested set of edits.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Tag adds presentation metadata understood by editors.
type Tag uint8

const (
	// TagUnnecessary marks declarations that are never used.
	TagUnnecessary Tag = 1 << iota
)

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
	Tags     Tag
}
