package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dftemplate/internal/diag"
	"dftemplate/internal/source"
)

func loadTemp(t *testing.T, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "quest.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, id, path
}

func aliasFix(file source.FileID, start, end uint32, alias string) diag.Diagnostic {
	span := source.Span{File: file, Start: start, End: end}
	return diag.New(diag.SevHint, diag.StyUseAlias, span, "use alias").
		WithFix("Replace with "+alias, diag.FixEdit{Span: span, NewText: alias})
}

func TestApplyAllKeepsLineEndings(t *testing.T) {
	// "Message:  1001\r\n" после нормализации: число на 10..14
	fs, id, path := loadTemp(t, "Message:  1001\r\nsay 1002\r\n")
	diags := []diag.Diagnostic{
		aliasFix(id, 19, 23, "QuestFail"),
		aliasFix(id, 10, 14, "QuestComplete"),
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 2 || len(res.FileChanges) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Applied[0].ID != "STY5003-0-10-0" {
		t.Errorf("first applied = %s, want the earlier span", res.Applied[0].ID)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Message:  QuestComplete\r\nsay QuestFail\r\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("file (-want +got):\n%s", diff)
	}
}

func TestApplyOnceAndDryRun(t *testing.T) {
	fs, id, path := loadTemp(t, "say 1001\nsay 1002\n")
	diags := []diag.Diagnostic{aliasFix(id, 13, 17, "B"), aliasFix(id, 4, 8, "A")}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("say A\nsay 1002\n", string(res.FileChanges[0].Content)); diff != "" {
		t.Errorf("content (-want +got):\n%s", diff)
	}
	if got, _ := os.ReadFile(path); string(got) != "say 1001\nsay 1002\n" {
		t.Errorf("dry run wrote the file: %q", got)
	}
}

func TestApplyByID(t *testing.T) {
	fs, id, _ := loadTemp(t, "say 1001\nsay 1002\n")
	diags := []diag.Diagnostic{aliasFix(id, 4, 8, "A"), aliasFix(id, 13, 17, "B")}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: FixID(diags[1], 0), DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.FileChanges[0].Content) != "say 1001\nsay B\n" {
		t.Errorf("content = %q", res.FileChanges[0].Content)
	}

	res, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "nope", DryRun: true})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Errorf("unknown id: %+v, %v", res, err)
	}
}

func TestConflictingFixesAreSkipped(t *testing.T) {
	fs, id, _ := loadTemp(t, "say 1001\n")
	diags := []diag.Diagnostic{aliasFix(id, 4, 8, "A"), aliasFix(id, 6, 8, "B")}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if string(res.FileChanges[0].Content) != "say A\n" {
		t.Errorf("content = %q", res.FileChanges[0].Content)
	}
}

func TestVirtualFilesAreNotWritten(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("quest.txt", []byte("say 1001\n"))
	_, err := Apply(fs, []diag.Diagnostic{aliasFix(id, 4, 8, "A")}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v", err)
	}
}

func TestSpansConflict(t *testing.T) {
	tests := []struct {
		a, b source.Span
		want bool
	}{
		{source.Span{Start: 1, End: 1}, source.Span{Start: 1, End: 1}, false},
		{source.Span{Start: 2, End: 2}, source.Span{Start: 1, End: 3}, true},
		{source.Span{Start: 3, End: 3}, source.Span{Start: 1, End: 3}, false},
		{source.Span{Start: 0, End: 2}, source.Span{Start: 2, End: 4}, false},
		{source.Span{Start: 0, End: 3}, source.Span{Start: 2, End: 4}, true},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v", tt.a, tt.b, got)
		}
	}
}
