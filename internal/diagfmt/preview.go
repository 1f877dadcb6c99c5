package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview renders the whole lines touched by edit before and
// after applying it.
func buildFixEditPreview(fs *source.FileSet, edit diag.FixEdit) (fixEditPreview, error) {
	if !resolvable(fs, edit.Span) {
		return fixEditPreview{}, errors.New("edit span is outside of the file set")
	}
	file := fs.Get(edit.Span.File)
	if edit.Span.End < edit.Span.Start {
		return fixEditPreview{}, fmt.Errorf("edit span %s is reversed", edit.Span)
	}

	first := file.LineOf(edit.Span.Start)
	last := file.LineOf(edit.Span.End)
	blockStart := file.LineStart(first)
	blockEnd := file.LineEnd(last)

	original := string(file.Content[blockStart:blockEnd])
	relStart := int(edit.Span.Start - blockStart)
	relEnd := int(edit.Span.End - blockStart)
	after := original[:relStart] + edit.NewText + original[relEnd:]

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

// oldText returns the text an edit replaces.
func oldText(fs *source.FileSet, edit diag.FixEdit) string {
	if !resolvable(fs, edit.Span) || edit.Span.End < edit.Span.Start {
		return ""
	}
	return edit.Span.Text(fs.Get(edit.Span.File))
}
