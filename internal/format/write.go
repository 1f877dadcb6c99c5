package format

import (
	"bytes"
	"strings"
)

// Writer accumulates formatted lines and tracks indentation and blank-line
// runs.
type Writer struct {
	opt         Options
	buf         []byte
	indentLevel int
	blankRun    int
	started     bool
}

// NewWriter creates a writer sized for a document of n bytes.
func NewWriter(n int, opt Options) *Writer {
	return &Writer{
		opt: opt.withDefaults(),
		buf: make([]byte, 0, n),
	}
}

// Bytes returns the output with exactly one trailing newline. An empty
// document stays empty.
func (w *Writer) Bytes() []byte {
	out := bytes.TrimRight(w.buf, "\n")
	if len(out) == 0 {
		return []byte{}
	}
	return append(out, '\n')
}

func (w *Writer) writeIndent() {
	if w.opt.IndentWidth == 0 {
		for range w.indentLevel {
			w.buf = append(w.buf, '\t')
		}
		return
	}
	for range w.indentLevel * w.opt.IndentWidth {
		w.buf = append(w.buf, ' ')
	}
}

// Line writes text as one indented line. Surrounding whitespace is dropped.
func (w *Writer) Line(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		w.Blank()
		return
	}
	w.writeIndent()
	w.Verbatim(text)
}

// Verbatim writes text as is, minus trailing whitespace.
func (w *Writer) Verbatim(text string) {
	text = strings.TrimRight(text, " \t")
	if text == "" {
		w.Blank()
		return
	}
	w.Raw(text)
}

// Raw writes text without any trimming.
func (w *Writer) Raw(text string) {
	w.buf = append(w.buf, text...)
	w.buf = append(w.buf, '\n')
	w.blankRun = 0
	w.started = true
}

// Blank writes an empty line. Empty lines before the first text are dropped.
func (w *Writer) Blank() {
	if !w.started {
		return
	}
	w.blankRun++
	w.buf = append(w.buf, '\n')
}

// CollapsingBlank is Blank capped at MaxBlankLines consecutive lines.
func (w *Writer) CollapsingBlank() {
	if w.blankRun >= w.opt.MaxBlankLines {
		return
	}
	w.Blank()
}

// SetIndent sets the indentation level directly.
func (w *Writer) SetIndent(level int) {
	w.indentLevel = max(level, 0)
}
