package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, hint *color.Color
	gutter, caret   *color.Color
	note, fix       *color.Color
	bold            *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		hint:   color.New(color.FgCyan, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed),
		note:   color.New(color.FgCyan),
		fix:    color.New(color.FgGreen),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.hint, p.gutter, p.caret, p.note, p.fix, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.hint
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pr := prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pr.diagnostic(&d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

func (pr *prettyPrinter) location(span source.Span) string {
	if !resolvable(pr.fs, span) {
		return "<unknown>"
	}
	start, _ := pr.fs.Resolve(span)
	path := formatPath(pr.fs, pr.fs.Get(span.File), pr.opts.PathMode)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func (pr *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	sev := pr.pal.severity(d.Severity)
	fmt.Fprintf(pr.w, "%s: %s %s: %s\n",
		pr.pal.bold.Sprint(pr.location(d.Primary)),
		sev.Sprint(d.Severity.String()),
		sev.Sprint(d.Code.ID()),
		pr.pal.bold.Sprint(d.Message))
	pr.snippet(d.Primary, pr.pal.caret)

	if pr.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(pr.w, "  %s %s: %s\n", pr.pal.note.Sprint("note:"), pr.location(n.Span), n.Msg)
		}
	}
	if pr.opts.ShowFixes {
		for i, f := range d.Fixes {
			pr.fix(i+1, f)
		}
	}
}

func (pr *prettyPrinter) fix(n int, f diag.Fix) {
	fmt.Fprintf(pr.w, "  %s\n", pr.pal.fix.Sprintf("fix #%d: %s", n, f.Title))
	for _, e := range f.Edits {
		fmt.Fprintf(pr.w, "    edit %s apply=%s\n", pr.location(e.Span), strconv.Quote(e.NewText))
		if !pr.opts.ShowPreview {
			continue
		}
		preview, err := buildFixEditPreview(pr.fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(pr.w, "    preview:")
		for _, line := range preview.before {
			fmt.Fprintf(pr.w, "      %s\n", pr.pal.err.Sprint("- "+expandTabs(line)))
		}
		for _, line := range preview.after {
			fmt.Fprintf(pr.w, "      %s\n", pr.pal.fix.Sprint("+ "+expandTabs(line)))
		}
	}
}

// snippet prints the lines around span with a gutter and underlines the
// first line of the span.
func (pr *prettyPrinter) snippet(span source.Span, caretColor *color.Color) {
	if !resolvable(pr.fs, span) {
		return
	}
	f := pr.fs.Get(span.File)
	start, end := pr.fs.Resolve(span)
	ctx := max(int(pr.opts.Context), 0)
	first := max(int(start.Line)-ctx, 1)
	last := min(int(start.Line)+ctx, f.LineCount())
	numWidth := len(strconv.Itoa(last))

	for ln := first; ln <= last; ln++ {
		text := f.Line(ln - 1)
		fmt.Fprintf(pr.w, " %s %s\n",
			pr.pal.gutter.Sprintf("%*d |", numWidth, ln),
			pr.clip(expandTabs(text)))
		if ln != int(start.Line) {
			continue
		}
		endCol := int(end.Col)
		if end.Line != start.Line {
			endCol = len(text) + 1
		}
		pad, width := caretGeometry(text, int(start.Col)-1, endCol-1)
		fmt.Fprintf(pr.w, " %s %s%s\n",
			pr.pal.gutter.Sprintf("%*s |", numWidth, ""),
			strings.Repeat(" ", pad),
			caretColor.Sprint("^"+strings.Repeat("~", max(width-1, 0))))
	}
}

func (pr *prettyPrinter) clip(line string) string {
	if pr.opts.Width == 0 || runewidth.StringWidth(line) <= int(pr.opts.Width) {
		return line
	}
	return runewidth.Truncate(line, int(pr.opts.Width), "...")
}

// caretGeometry converts byte columns of a raw line into display columns of
// its tab-expanded form.
func caretGeometry(line string, startByte, endByte int) (pad, width int) {
	startByte = min(max(startByte, 0), len(line))
	endByte = min(max(endByte, startByte), len(line))
	pad = displayWidth(line[:startByte])
	width = displayWidth(line[:endByte]) - pad
	return pad, max(width, 1)
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += tabWidth - w%tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return sb.String()
}

// Summary prints "N errors, N warnings, N hints".
func Summary(w io.Writer, bag *diag.Bag, useColor bool) {
	pal := newPalette(useColor)
	errs, warns, hints := bag.Count(diag.SevError), bag.Count(diag.SevWarning), bag.Count(diag.SevHint)
	fmt.Fprintf(w, "%s, %s, %s\n",
		pal.err.Sprint(plural(errs, "error")),
		pal.warn.Sprint(plural(warns, "warning")),
		pal.hint.Sprint(plural(hints, "hint")))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// Short prints one line per diagnostic, ordered by location.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) {
	if out := diag.FormatShortDiagnostics(bag.Items(), fs, includeNotes); out != "" {
		fmt.Fprintln(w, out)
	}
}
