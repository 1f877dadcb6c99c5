package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"dftemplate/internal/kb"
	"dftemplate/internal/parser"
	"dftemplate/internal/source"
)

type Options struct {
	// IndentWidth is the number of spaces per level; 0 indents with tabs.
	IndentWidth int
	// MaxBlankLines caps runs of empty lines in QBN.
	MaxBlankLines int
}

func (o Options) withDefaults() Options {
	if o.IndentWidth < 0 {
		o.IndentWidth = 0
	}
	if o.MaxBlankLines <= 0 {
		o.MaxBlankLines = 1
	}
	return o
}

// FormatFile lays out a parsed document. Directives, symbols, tasks and
// message headers start at column 0; task actions get one indentation
// level; message bodies keep their leading whitespace.
func FormatFile(sf *source.File, res parser.Result) ([]byte, error) {
	return FormatFileWith(sf, res, Options{})
}

// FormatFileWith is FormatFile with explicit options.
func FormatFileWith(sf *source.File, res parser.Result, opt Options) ([]byte, error) {
	if sf == nil {
		return nil, errors.New("format: nil source file")
	}
	if res.Quest == nil || res.Quest.File != sf {
		return nil, errors.New("format: parse result belongs to another file")
	}
	if len(res.Lines) != sf.LineCount() {
		return nil, errors.New("format: line classification is out of date")
	}

	// действия точки входа не принадлежат задаче и остаются без отступа
	entry := make(map[int]bool, len(res.Quest.Qbn.EntryPoint))
	for _, a := range res.Quest.Qbn.EntryPoint {
		entry[sf.LineOf(a.Line.Start)] = true
	}

	w := NewWriter(len(sf.Content), opt)
	inQrc, inQbn := false, false
	for i, kind := range res.Lines {
		text := sf.Line(i)
		switch kind {
		case parser.LineSection:
			inQrc = strings.TrimSpace(text) == "QRC:"
			inQbn = !inQrc
			w.SetIndent(0)
			w.Line(text)
		case parser.LineDirective, parser.LineSymbol, parser.LineTask, parser.LineMessage:
			w.SetIndent(0)
			w.Line(text)
		case parser.LineAction:
			if entry[i] {
				w.SetIndent(0)
			} else {
				w.SetIndent(1)
			}
			w.Line(text)
		case parser.LineSkipped:
			switch {
			case strings.TrimSpace(text) != "":
				w.Verbatim(text)
			case inQbn:
				w.CollapsingBlank()
			case inQrc && text != "":
				// пробельная строка не завершает сообщение, в отличие от пустой
				w.Raw(text)
			default:
				w.Blank()
			}
		default:
			// тело сообщения и нераспознанные строки
			w.Verbatim(text)
		}
	}
	return w.Bytes(), nil
}

// CheckRoundTrip formats the file and re-parses it, ensuring that every
// meaningful line keeps its classification and its words.
func CheckRoundTrip(sf *source.File, base *kb.KnowledgeBase, opt Options) (ok bool, msg string) {
	orig := parser.ParseFile(sf, base)
	formatted, err := FormatFileWith(sf, orig, opt)
	if err != nil {
		return false, "fmt-check: formatter failed: " + err.Error()
	}

	fs2 := source.NewFileSetWithBase("")
	rebuilt := fs2.Get(fs2.AddVirtual(sf.Path, formatted))
	again := parser.ParseFile(rebuilt, base)

	a, b := outline(sf, orig), outline(rebuilt, again)
	if len(a) != len(b) {
		return false, fmt.Sprintf("fmt-check: %d meaningful lines became %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return false, fmt.Sprintf("fmt-check: line %q became %q", a[i], b[i])
		}
	}
	return true, "fmt-check: OK"
}

// outline is the kind and words of every non-skipped line.
func outline(sf *source.File, res parser.Result) []string {
	out := make([]string, 0, len(res.Lines))
	for i, kind := range res.Lines {
		if kind == parser.LineSkipped {
			continue
		}
		out = append(out, kind.String()+" "+strings.Join(strings.Fields(sf.Line(i)), " "))
	}
	return out
}

// PathOptions configures FormatPaths.
type PathOptions struct {
	Check   bool
	Stdout  bool
	Options Options
}

// Result captures the result of formatting a single file.
type Result struct {
	Path      string
	Changed   bool
	Err       error
	Formatted []byte
}

// FormatPaths formats quest files. With Check nothing is written and Changed
// tells whether the file would change; with Stdout the output is returned
// in Formatted. Otherwise changed files are rewritten in their original
// encoding.
func FormatPaths(ctx context.Context, paths []string, base *kb.KnowledgeBase, opts PathOptions) ([]Result, error) {
	if len(paths) == 0 {
		return nil, errors.New("format: no quest files found")
	}
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := Result{Path: path}
		formatted, flags, changed, err := formatSingleFile(path, base, opts.Options)
		switch {
		case err != nil:
			result.Err = err
		case opts.Check:
			result.Changed = changed
		case opts.Stdout:
			result.Formatted = formatted
			result.Changed = changed
		case changed:
			result.Err = writeFormatted(path, formatted, flags)
			result.Changed = result.Err == nil
		}
		results = append(results, result)
	}
	return results, nil
}

func formatSingleFile(path string, base *kb.KnowledgeBase, opt Options) ([]byte, source.FileFlags, bool, error) {
	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, 0, false, err
	}
	sf := fileSet.Get(id)
	if ok, msg := CheckRoundTrip(sf, base, opt); !ok {
		return nil, 0, false, errors.New(msg)
	}
	formatted, err := FormatFileWith(sf, parser.ParseFile(sf, base), opt)
	if err != nil {
		return nil, 0, false, err
	}
	return formatted, sf.Flags, !bytes.Equal(sf.Content, formatted), nil
}

func writeFormatted(path string, formatted []byte, flags source.FileFlags) error {
	data, err := source.Denormalize(formatted, flags)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, data, mode.Perm())
}
