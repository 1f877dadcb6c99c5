package diag

import (
	"testing"

	"dftemplate/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("quest.txt", []byte("a\nb\n"))

	diags := []Diagnostic{
		NewError(SemDuplicateDefinition, source.Span{File: file, Start: 0, End: 1}, "first line\nsecond").
			WithNote(source.Span{File: file, Start: 2, End: 3}, "note line").
			WithNote(source.Span{File: 42, Start: 0, End: 0}, "unresolvable"),
		New(SevWarning, LntUnusedSymbol, source.Span{File: file, Start: 2, End: 3}, "another"),
	}

	want := "error SEM2001 quest.txt:1:1 first line second\n" +
		"note SEM2001 quest.txt:2:1 note line\n" +
		"warning LNT4001 quest.txt:2:1 another"
	if got := FormatGoldenDiagnostics(diags, fs, true); got != want {
		t.Fatalf("unexpected golden output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestCodeIDs(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{SynUndefinedExpression, "SYN1001"},
		{SemUndefinedSymbol, "SEM2004"},
		{ValIncorrectTime, "VAL3004"},
		{LntUnstartedClock, "LNT4004"},
		{StyUseAlias, "STY5003"},
		{KbSchemaMismatch, "KB6001"},
		{IOLoadFileError, "IO7001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d.ID() = %q, want %q", tt.code, got, tt.want)
		}
		if tt.code == UnknownCode {
			continue
		}
		if back, ok := ParseCode(tt.want); !ok || back != tt.code {
			t.Errorf("ParseCode(%q) = %d,%v", tt.want, back, ok)
		}
	}

	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes() not sorted at %d: %v", i, codes)
		}
	}
}

func TestUnusedCodesAreTaggedUnnecessary(t *testing.T) {
	for _, code := range []Code{LntUnusedSymbol, LntUnusedTask, LntUnusedMessage} {
		if New(SevWarning, code, source.Span{}, "x").Tags&TagUnnecessary == 0 {
			t.Errorf("%s should be tagged unnecessary", code.ID())
		}
	}
	if New(SevWarning, LntUnstartedClock, source.Span{}, "x").Tags != 0 {
		t.Error("clock warnings must not be tagged")
	}
}

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	ReportWarning(r, LntUnusedTask, source.Span{Start: 10, End: 12}, "late").Emit()
	ReportError(r, SemUndefinedTask, source.Span{Start: 1, End: 2}, "early").Emit()
	ReportHint(r, StyNamingConvention, source.Span{Start: 0, End: 1}, "dropped").Emit()

	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}
	bag.Sort()
	if bag.Items()[0].Message != "early" {
		t.Errorf("first after sort = %q", bag.Items()[0].Message)
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Error("expected errors and warnings")
	}
	if bag.Count(SevHint) != 0 {
		t.Error("hint should have been dropped by the limit")
	}

	other := NewBag(5)
	other.Add(New(SevHint, StyUseAlias, source.Span{}, "merged"))
	bag.Merge(other)
	if bag.Len() != 3 || bag.Cap() < 3 {
		t.Errorf("after merge Len=%d Cap=%d", bag.Len(), bag.Cap())
	}
}

func TestNewBagUnlimited(t *testing.T) {
	if got := NewBag(0).Cap(); got != 65535 {
		t.Errorf("Cap = %d, want 65535", got)
	}
	if got := NewBag(1 << 20).Cap(); got != 65535 {
		t.Errorf("Cap = %d, want 65535", got)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	var got []Diagnostic
	r := ReporterFunc(func(d Diagnostic) { got = append(got, d) })

	b := ReportError(r, SemDuplicateDefinition, source.Span{}, "_a_ is already defined.").
		WithNote(source.Span{Start: 4, End: 7}, "also declared here")
	b.Emit()
	b.Emit()

	if len(got) != 1 {
		t.Fatalf("emitted %d times", len(got))
	}
	if len(got[0].Notes) != 1 {
		t.Errorf("notes = %v", got[0].Notes)
	}
}

func TestDedup(t *testing.T) {
	bag := NewBag(10)
	dedup := NewDedupReporter(BagReporter{Bag: bag})
	d := NewError(SemUndefinedSymbol, source.Span{Start: 3, End: 5}, "x")
	dedup.Report(d)
	dedup.Report(d)
	if bag.Len() != 1 {
		t.Errorf("reporter dedup: Len = %d", bag.Len())
	}

	bag.Add(d)
	bag.Dedup()
	if bag.Len() != 1 {
		t.Errorf("bag dedup: Len = %d", bag.Len())
	}
}

func TestConfigApply(t *testing.T) {
	cfg := Config{
		MinSeverity:      SevWarning,
		Overrides:        map[string]Severity{"LNT4001": SevHint},
		Ignore:           []string{"STY*"},
		WarningsAsErrors: true,
	}

	tests := []struct {
		name    string
		in      Diagnostic
		wantOK  bool
		wantSev Severity
	}{
		{"ignored by glob", New(SevHint, StyUseAlias, source.Span{}, ""), false, SevHint},
		{"downgraded below minimum", New(SevWarning, LntUnusedSymbol, source.Span{}, ""), false, SevHint},
		{"warning promoted", New(SevWarning, LntUnusedTask, source.Span{}, ""), true, SevError},
		{"error kept", NewError(SemUndefinedTask, source.Span{}, ""), true, SevError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cfg.Apply(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Severity != tt.wantSev {
				t.Errorf("severity = %v, want %v", got.Severity, tt.wantSev)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"hint": SevHint, "WARNING": SevWarning, " error ": SevError} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v,%v", in, got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("expected error for unknown severity")
	}
}
