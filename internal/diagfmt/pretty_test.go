package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

const questSource = "QBN:\n\tclicked item _gld_\nItem _gold_ gold\n"

// undefinedGold builds the diagnostic for "_gld_" on line 2.
func undefinedGold(t *testing.T, path string) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(path, []byte(questSource))

	d := diag.NewError(diag.SemUndefinedSymbol, source.Span{File: fileID, Start: 19, End: 24},
		"Reference to undefined symbol: _gld_.").
		WithNote(source.Span{File: fileID, Start: 30, End: 36}, "did you mean _gold_?").
		WithFix("Replace with _gold_", diag.FixEdit{
			Span:    source.Span{File: fileID, Start: 19, End: 24},
			NewText: "_gold_",
		})
	bag := diag.NewBag(10)
	bag.Add(d)
	return bag, fs, fileID
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "/home/user/quests/S0000001.txt")

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/quests/S0000001.txt:2:15"},
		{"Basename only", PathModeBasename, "S0000001.txt:2:15"},
		{"Auto keeps short paths", PathModeAuto, "/home/user/quests/S0000001.txt:2:15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "SEM2004", "Reference to undefined symbol: _gld_."} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettyCaretUnderTabbedLine(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "quest.txt")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "quest.txt:2:15: ERROR SEM2004: Reference to undefined symbol: _gld_.\n" +
		" 2 |     clicked item _gld_\n" +
		"   | " + strings.Repeat(" ", 17) + "^~~~~\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestPrettyContextLines(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "quest.txt")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1})
	output := buf.String()
	for _, want := range []string{" 1 | QBN:", " 3 | Item _gold_ gold"} {
		if !strings.Contains(output, want) {
			t.Errorf("missing context line %q:\n%s", want, output)
		}
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	bag, fs, _ := undefinedGold(t, "quest.txt")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:    PathModeBasename,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	})
	output := buf.String()

	for _, want := range []string{
		"note: quest.txt:3:6: did you mean _gold_?",
		"fix #1: Replace with _gold_",
		`apply="_gold_"`,
		"preview:",
		"-     clicked item _gld_",
		"+     clicked item _gold_",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrettyUnresolvableSpan(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: 7}, "failed to load file"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if got := buf.String(); got != "<unknown>: ERROR IO7001: failed to load file\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSummaryAndShort(t *testing.T) {
	bag, fs, fileID := undefinedGold(t, "quest.txt")
	bag.Add(diag.New(diag.SevWarning, diag.LntUnusedSymbol, source.Span{File: fileID, Start: 30, End: 36},
		"_gold_ is declared but never used."))

	var summary bytes.Buffer
	Summary(&summary, bag, false)
	if got := summary.String(); got != "1 error, 1 warning, 0 hints\n" {
		t.Errorf("summary = %q", got)
	}

	var short bytes.Buffer
	Short(&short, bag, fs, false)
	want := "error SEM2004 quest.txt:2:15 Reference to undefined symbol: _gld_.\n" +
		"warning LNT4001 quest.txt:3:6 _gold_ is declared but never used.\n"
	if got := short.String(); got != want {
		t.Errorf("short:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestCaretGeometry(t *testing.T) {
	tests := []struct {
		line       string
		start, end int
		pad, width int
	}{
		{"abc", 1, 2, 1, 1},
		{"\tx", 1, 2, 4, 1},
		{"ab\tx", 3, 4, 4, 1},
		{"héllo", 0, 6, 0, 5},
		{"abc", 3, 3, 3, 1},
	}
	for _, tt := range tests {
		pad, width := caretGeometry(tt.line, tt.start, tt.end)
		if pad != tt.pad || width != tt.width {
			t.Errorf("caretGeometry(%q, %d, %d) = %d,%d; want %d,%d",
				tt.line, tt.start, tt.end, pad, width, tt.pad, tt.width)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "short": FormatShort, "JSON": FormatJSON, "sarif": FormatSarif} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
