package diagfmt

import (
	"encoding/json"
	"io"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

type FixJSON struct {
	Title string        `json:"title"`
	Edits []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity    string       `json:"severity"`
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Location    LocationJSON `json:"location"`
	Unnecessary bool         `json:"unnecessary,omitempty"`
	Notes       []NoteJSON   `json:"notes,omitempty"`
	Fixes       []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{StartByte: span.Start, EndByte: span.End}
	if !resolvable(fs, span) {
		return loc
	}
	loc.File = formatPath(fs, fs.Get(span.File), pathMode)
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}

	diagnostics := make([]DiagnosticJSON, 0, len(items))
	for _, d := range items {
		out := DiagnosticJSON{
			Severity:    d.Severity.String(),
			Code:        d.Code.ID(),
			Message:     d.Message,
			Location:    makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
			Unnecessary: d.Tags&diag.TagUnnecessary != 0,
		}
		if opts.IncludeNotes {
			for _, note := range d.Notes {
				out.Notes = append(out.Notes, NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				})
			}
		}
		if opts.IncludeFixes {
			for _, fix := range d.Fixes {
				out.Fixes = append(out.Fixes, buildFix(fix, fs, opts))
			}
		}
		diagnostics = append(diagnostics, out)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

func buildFix(fix diag.Fix, fs *source.FileSet, opts JSONOpts) FixJSON {
	out := FixJSON{Title: fix.Title}
	for _, edit := range fix.Edits {
		e := FixEditJSON{
			Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
			NewText:  edit.NewText,
			OldText:  oldText(fs, edit),
		}
		if opts.IncludePreviews {
			if preview, err := buildFixEditPreview(fs, edit); err == nil {
				e.BeforeLines = preview.before
				e.AfterLines = preview.after
			}
		}
		out.Edits = append(out.Edits, e)
	}
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
