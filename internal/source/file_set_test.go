package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.AddVirtual("quest.txt", []byte("Quest: A\n"))
	id2 := fs.AddVirtual("quest.txt", []byte("Quest: B\n"))
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	latest, ok := fs.GetLatest("quest.txt")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	// старая версия остаётся доступной
	if got := fs.Get(id1).Line(0); got != "Quest: A" {
		t.Errorf("first version line = %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("a.txt", []byte("a\nb\n")))

	want := []uint32{1, 3}
	if len(file.LineIdx) != len(want) {
		t.Fatalf("LineIdx = %v, want %v", file.LineIdx, want)
	}
	for i := range want {
		if file.LineIdx[i] != want[i] {
			t.Errorf("LineIdx[%d] = %d, want %d", i, file.LineIdx[i], want[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}
	if file.LineCount() != 3 {
		t.Errorf("LineCount = %d, want 3", file.LineCount())
	}
}

func TestLines(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("q.txt", []byte("QRC:\n\nQBN:\nItem _a_ gold")))

	tests := []struct {
		line int
		want string
	}{
		{0, "QRC:"},
		{1, ""},
		{2, "QBN:"},
		{3, "Item _a_ gold"},
		{4, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := file.Line(tt.line); got != tt.want {
			t.Errorf("Line(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}

	span := file.LineSpan(3)
	if span.Text(file) != "Item _a_ gold" {
		t.Errorf("LineSpan text = %q", span.Text(file))
	}
	if got := file.LineOf(span.Start + 5); got != 3 {
		t.Errorf("LineOf = %d, want 3", got)
	}
	if got := file.LineOf(file.LineIdx[0]); got != 0 {
		t.Errorf("LineOf(newline) = %d, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  string
		flags FileFlags
	}{
		{"plain", []byte("a\nb\n"), "a\nb\n", 0},
		{"crlf", []byte("a\r\nb\r\n"), "a\nb\n", FileNormalizedCRLF},
		{"lone cr", []byte("a\rb"), "a\rb", 0},
		{"bom", []byte("\xEF\xBB\xBFx\n"), "x\n", FileHadBOM},
		{"windows-1252", []byte("Ma\xEFa\n"), "Maïa\n", FileDecodedLegacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flags := Normalize(tt.in)
			if string(got) != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if flags != tt.flags {
				t.Errorf("flags = %b, want %b", flags, tt.flags)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("q.txt", []byte("ab\ncd\n"))

	tests := []struct {
		span       Span
		start, end LineCol
	}{
		{Span{File: id, Start: 0, End: 2}, LineCol{1, 1}, LineCol{1, 3}},
		{Span{File: id, Start: 3, End: 5}, LineCol{2, 1}, LineCol{2, 3}},
		{Span{File: id, Start: 6, End: 6}, LineCol{3, 1}, LineCol{3, 1}},
	}
	for _, tt := range tests {
		start, end := fs.Resolve(tt.span)
		if start != tt.start || end != tt.end {
			t.Errorf("Resolve(%v) = %v,%v; want %v,%v", tt.span, start, end, tt.start, tt.end)
		}
	}
}

func TestSpan(t *testing.T) {
	a := Span{File: 0, Start: 2, End: 6}
	b := Span{File: 0, Start: 4, End: 10}

	if got := a.Cover(b); got != (Span{File: 0, Start: 2, End: 10}) {
		t.Errorf("Cover = %v", got)
	}
	if !a.Cover(b).Contains(a) || !a.Cover(b).Contains(b) {
		t.Error("cover must contain both spans")
	}
	if a.Contains(b) {
		t.Error("a must not contain b")
	}
	if (Span{File: 1, Start: 2, End: 6}).Contains(a) {
		t.Error("spans in different files must not contain each other")
	}
	if !a.ContainsOffset(6) || a.ContainsOffset(7) {
		t.Error("ContainsOffset must include the end offset only")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quest.txt")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFQuest: X\r\nQRC:\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "Quest: X\nQRC:\n" {
		t.Errorf("content = %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b", file.Flags)
	}
	if got := file.FormatPath("relative", dir); got != "quest.txt" {
		t.Errorf("relative path = %q", got)
	}

	if _, err := fs.Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDenormalizeRoundTrip(t *testing.T) {
	for _, in := range []string{"a\nb\n", "a\r\nb\r\n", "\xEF\xBB\xBFx\r\n", "Ma\xEFa\n"} {
		content, flags := Normalize([]byte(in))
		back, err := Denormalize(content, flags)
		if err != nil {
			t.Fatalf("Denormalize(%q): %v", in, err)
		}
		if string(back) != in {
			t.Errorf("round trip of %q gave %q", in, back)
		}
	}
}
