package lint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/parser"
	"dftemplate/internal/quest"
	"dftemplate/internal/source"
)

func parse(t *testing.T, text string) *quest.Quest {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("quest.txt", []byte(text)))
	return parser.ParseFile(file, kb.Default()).Quest
}

func lint(t *testing.T, text string, opts Options) []diag.Diagnostic {
	t.Helper()
	return Lint(parse(t, text), opts).Items()
}

func count(diags []diag.Diagnostic, code diag.Code) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func only(t *testing.T, diags []diag.Diagnostic, code diag.Code) diag.Diagnostic {
	t.Helper()
	var found []diag.Diagnostic
	for _, d := range diags {
		if d.Code == code {
			found = append(found, d)
		}
	}
	if len(found) != 1 {
		t.Fatalf("want exactly one %s, got %d: %v", code.ID(), len(found), messages(diags))
	}
	return found[0]
}

func messages(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code.ID() + " " + d.Message
	}
	return out
}

func errorsOf(diags []diag.Diagnostic) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Severity == diag.SevError {
			out = append(out, d)
		}
	}
	return out
}

func TestGoldScenarios(t *testing.T) {
	const decl = "Item _gold_ gold range 1 to 1\n"

	t.Run("declared and referenced", func(t *testing.T) {
		diags := lint(t, "QBN:\n"+decl+"\n_start_ task:\n\tclicked item _gold_\n", Options{})
		if n := count(diags, diag.LntUnusedSymbol); n != 0 {
			t.Errorf("unused warnings = %d: %v", n, messages(diags))
		}
		if n := count(diags, diag.SemUndefinedSymbol); n != 0 {
			t.Errorf("undefined errors = %d: %v", n, messages(diags))
		}
	})

	t.Run("declared twice", func(t *testing.T) {
		q := parse(t, "QBN:\n"+decl+decl+"\n_start_ task:\n\tclicked item _gold_\n")
		if defs := q.Qbn.Symbols.Definitions("_gold_"); len(defs) != 2 {
			t.Fatalf("definitions = %d, want 2", len(defs))
		}
		diags := Lint(q, Options{}).Items()
		d := only(t, diags, diag.SemDuplicateDefinition)
		if d.Message != "_gold_ is already defined." {
			t.Errorf("message = %q", d.Message)
		}
		if len(d.Notes) != 1 || d.Notes[0].Span != q.Qbn.Symbols.Definitions("_gold_")[0].Span {
			t.Errorf("notes = %v", d.Notes)
		}
	})

	t.Run("never referenced", func(t *testing.T) {
		diags := lint(t, "QBN:\n"+decl, Options{})
		d := only(t, diags, diag.LntUnusedSymbol)
		if d.Message != "_gold_ is declared but never used." {
			t.Errorf("message = %q", d.Message)
		}
		if errs := errorsOf(diags); len(errs) != 0 {
			t.Errorf("unexpected errors: %v", messages(errs))
		}
	})
}

func TestReferenceInMessageTextCounts(t *testing.T) {
	text := "QRC:\n\nMessage:  1011\nBring =gold_ home.\n\nQBN:\nItem _gold_ gold\n\n_start_ task:\n\tsay 1011\n"
	diags := lint(t, text, Options{})
	if n := count(diags, diag.LntUnusedSymbol); n != 0 {
		t.Errorf("symbol used in message text reported unused: %v", messages(diags))
	}
	if n := count(diags, diag.LntUnusedMessage); n != 0 {
		t.Errorf("message used by say reported unused: %v", messages(diags))
	}
}

func TestLongerSymbolDoesNotReferenceShorter(t *testing.T) {
	const decls = "Item _gold_ gold range 1 to 1\nItem _gold_bar_ gold range 1 to 1\n"

	t.Run("used by an action", func(t *testing.T) {
		diags := lint(t, "QBN:\n"+decls+"\n_start_ task:\n\tclicked item _gold_bar_\n", Options{})
		d := only(t, diags, diag.LntUnusedSymbol)
		if d.Message != "_gold_ is declared but never used." {
			t.Errorf("message = %q", d.Message)
		}
	})

	t.Run("used in message text", func(t *testing.T) {
		text := "QRC:\n\nMessage:  1011\nBring =gold_bar_ home.\n\nQBN:\n" + decls + "\n_start_ task:\n\tsay 1011\n"
		diags := lint(t, text, Options{})
		d := only(t, diags, diag.LntUnusedSymbol)
		if d.Message != "_gold_ is declared but never used." {
			t.Errorf("message = %q", d.Message)
		}
	})
}

func TestInvalidDefinition(t *testing.T) {
	diags := lint(t, "QBN:\nItem _gold_ gold extra words\n", Options{})
	d := only(t, diags, diag.SynInvalidDefinition)
	if d.Message != "Invalid definition for _gold_ (Item)." {
		t.Errorf("message = %q", d.Message)
	}
	for _, code := range []diag.Code{diag.SemDuplicateDefinition, diag.LntUnusedSymbol} {
		if n := count(diags, code); n != 0 {
			t.Errorf("%s reported %d times", code.ID(), n)
		}
	}
}

func TestClockWarnings(t *testing.T) {
	diags := lint(t, "QBN:\nClock _timer_\n", Options{})
	want := []string{
		"LNT4004 _timer_ is declared but never starts.",
		"LNT4005 _timer_ doesn't activate a task.",
	}
	if diff := cmp.Diff(want, messages(diags)); diff != "" {
		t.Errorf("diagnostics (-want +got):\n%s", diff)
	}

	linked := lint(t, "QBN:\nClock _timer_\n\nstart timer _timer_\n\n_timer_ task:\n\tend quest\n", Options{})
	if n := count(linked, diag.LntUnstartedClock) + count(linked, diag.LntUnlinkedClock); n != 0 {
		t.Errorf("linked clock warnings: %v", messages(linked))
	}
}

func TestParameterValues(t *testing.T) {
	tests := []struct {
		name string
		line string
		code diag.Code
		msg  string
	}{
		{"signed natural", "remove log step -1", diag.ValNotNatural, "Natural number doesn't accept a sign."},
		{"unsigned integer", "legal repute 5", diag.ValNotInteger, "Integer number must have a sign."},
		{"not a number", "remove log step two", diag.ValNotANumber, "two is not a number."},
		{"hour out of range", "daily from 24:00 to 19:30", diag.ValIncorrectTime, "24:00 is not in 24-hour format (00:00 to 23:59)."},
		{"minute out of range", "daily from 07:00 to 19:60", diag.ValIncorrectTime, "19:60 is not in 24-hour format (00:00 to 23:59)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := lint(t, "QBN:\n"+tt.line+"\n", Options{})
			errs := errorsOf(diags)
			if len(errs) != 1 {
				t.Fatalf("errors = %v", messages(errs))
			}
			if errs[0].Code != tt.code || errs[0].Message != tt.msg {
				t.Errorf("got %s %q, want %s %q", errs[0].Code.ID(), errs[0].Message, tt.code.ID(), tt.msg)
			}
		})
	}

	valid := lint(t, "QBN:\nremove log step 1\nlegal repute -5\ndaily from 00:00 to 23:59\n", Options{})
	if errs := errorsOf(valid); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", messages(errs))
	}
}

func TestReferences(t *testing.T) {
	text := `QBN:
Item _gold_ gold
Person _qgiver_ group Questor

_start_ task:
	clicked item _gld_
	give pc _qgiver_
	start task _nothing_
	make pc ill with plague_x
`
	diags := lint(t, text, Options{})

	d := only(t, diags, diag.SemUndefinedSymbol)
	if d.Message != "Reference to undefined symbol: _gld_." {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "did you mean _gold_?" {
		t.Errorf("notes = %v", d.Notes)
	}

	d = only(t, diags, diag.SemIncorrectSymbolType)
	if d.Message != "Incorrect symbol type: _qgiver_ is not declared as Item." {
		t.Errorf("message = %q", d.Message)
	}

	d = only(t, diags, diag.SemUndefinedTask)
	if d.Message != "Reference to undefined task: _nothing_." {
		t.Errorf("message = %q", d.Message)
	}

	d = only(t, diags, diag.SemUndefinedAttribute)
	if d.Message != "The name 'plague_x' doesn't exist in the attribute group 'disease'." {
		t.Errorf("message = %q", d.Message)
	}

	quiet := lint(t, text, Options{NoSuggestions: true})
	if d := only(t, quiet, diag.SemUndefinedSymbol); len(d.Notes) != 0 {
		t.Errorf("suggestions disabled but got %v", d.Notes)
	}
}

func TestWhenOperatorsAreNotTasks(t *testing.T) {
	text := "QBN:\nvariable _b_\nvariable _c_\n\n_a_ task:\n\twhen _b_ and not _c_\n"
	diags := lint(t, text, Options{})
	if n := count(diags, diag.SemUndefinedTask); n != 0 {
		t.Errorf("operators reported as tasks: %v", messages(diags))
	}
	if n := count(diags, diag.LntUnusedTask); n != 0 {
		t.Errorf("unused tasks: %v", messages(diags))
	}
}

func TestTasks(t *testing.T) {
	text := `QBN:
_idle_ task:
	end quest

Brisienna _flag_
bad task:
	end quest

until _missing_ performed:
	end quest
`
	diags := lint(t, text, Options{})
	got := messages(diags)
	for _, want := range []string{
		"LNT4002 _idle_ is declared but never used.",
		"LNT4002 _flag_ from Brisienna is declared but never used.",
		"STY5001 Violation of naming convention: use _symbol_.",
		"SEM2007 Task execution is based on another task which is not defined: _missing_.",
	} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %q in %v", want, got)
		}
	}
}

func TestArity(t *testing.T) {
	diags := lint(t, "QBN:\n\tstart timer\n", Options{})
	d := only(t, diags, diag.SynInvalidSignature)
	want := "Invalid signature for action 'start'. Expected: start timer ${1:_clock_}."
	if d.Message != want {
		t.Errorf("message = %q, want %q", d.Message, want)
	}
}

func TestMessages(t *testing.T) {
	text := `QRC:

QuestorOffer:  [1001]
Hello.

Message:  1012
Later.

Message:  1011
Earlier.

Message:  1011
Again.

QBN:
say 1001
say 1011
say 1012
`
	q := parse(t, text)
	diags := Lint(q, Options{}).Items()

	d := only(t, diags, diag.SemInvalidStaticAlias)
	if d.Message != "'QuestorOffer' is not a valid alias for message 1001." {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "RefuseQuest" {
		t.Errorf("fixes = %v", d.Fixes)
	}
	if got := d.Primary.Text(q.File); got != "QuestorOffer" {
		t.Errorf("alias span covers %q", got)
	}

	d = only(t, diags, diag.SemDuplicateMessageID)
	if d.Message != "Message number already in use: 1011." || len(d.Notes) != 1 {
		t.Errorf("duplicate = %q notes=%v", d.Message, d.Notes)
	}

	d = only(t, diags, diag.StyMessagePosition)
	if d.Message != "Message 1011 should not be positioned after 1012." {
		t.Errorf("order = %q", d.Message)
	}

	d = only(t, diags, diag.StyUseAlias)
	if d.Message != "Use text alias for static message 1001." {
		t.Errorf("alias hint = %q", d.Message)
	}
	if d.Fixes[0].Edits[0].NewText != "RefuseQuest" {
		t.Errorf("alias fix = %v", d.Fixes)
	}

	if n := count(diags, diag.LntUnusedMessage); n != 0 {
		t.Errorf("unused messages: %v", messages(diags))
	}
}

func TestUndefinedMessage(t *testing.T) {
	const qrc = "QRC:\n\nRefuseQuest:  [1001]\nNo.\n\nMessage:  1011\nFound it.\n\nQBN:\n"

	// словарь с перегрузкой ${messageName}
	dir := t.TempDir()
	modules := `{"modules": [{"name": "Messages", "actions": [
		{"category": "action", "overloads": ["say ${1:message}"]},
		{"category": "action", "overloads": ["log ${1:messageID} step ${2:nn}"]},
		{"category": "action", "overloads": ["show ${1:messageName}"]}
	]}]}`
	if err := os.WriteFile(filepath.Join(dir, "modules.json"), []byte(modules), 0o600); err != nil {
		t.Fatal(err)
	}
	custom, err := kb.Load(nil, dir, nil)
	if err != nil {
		t.Fatalf("kb.Load: %v", err)
	}

	cases := []struct {
		name   string
		line   string
		kb     *kb.KnowledgeBase
		errors int
	}{
		{"unknown id", "say 9999", kb.Default(), 1},
		{"unknown alias", "say NotAnAlias", kb.Default(), 1},
		{"declared id", "say 1011", kb.Default(), 0},
		{"declared alias", "say RefuseQuest", kb.Default(), 0},
		{"static id", "say 1001", kb.Default(), 0},
		{"static alias not declared", "say QuestComplete", kb.Default(), 1},
		{"messageID declared", "log 1011 step 0", custom, 0},
		{"messageID unknown", "log 1012 step 0", custom, 1},
		{"messageID alias", "log RefuseQuest step 0", custom, 1},
		{"messageName declared", "show RefuseQuest", custom, 0},
		{"messageName unknown", "show NotAnAlias", custom, 1},
		{"messageName not declared", "show QuestComplete", custom, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("quest.txt", []byte(qrc+tc.line+"\n")))
			q := parser.ParseFile(file, tc.kb).Quest
			diags := Lint(q, Options{}).Items()
			if n := count(diags, diag.SemUndefinedMessage); n != tc.errors {
				t.Errorf("SEM2003 count = %d, want %d: %v", n, tc.errors, messages(diags))
			}
			if tc.errors == 1 {
				d := only(t, diags, diag.SemUndefinedMessage)
				value := strings.Fields(tc.line)[1]
				if d.Message != "Reference to undefined message: "+value+"." {
					t.Errorf("message = %q", d.Message)
				}
				if got := d.Primary.Text(q.File); got != value {
					t.Errorf("span covers %q", got)
				}
			}
		})
	}
}

func TestUnusedMessage(t *testing.T) {
	diags := lint(t, "QRC:\n\nMessage:  1020\nUnused.\n\nRefuseQuest:  [1001]\nNo.\n", Options{})
	d := only(t, diags, diag.LntUnusedMessage)
	if d.Message != "1020 is declared but never used." {
		t.Errorf("message = %q", d.Message)
	}
	if d.Tags&diag.TagUnnecessary == 0 {
		t.Error("unused message should be tagged unnecessary")
	}
}

func TestSymbolVariation(t *testing.T) {
	text := "QRC:\n\nMessage:  1011\nWait for =timer_ or __timer_.\n\nQBN:\nClock _timer_\n\nstart timer _timer_\nsay 1011\n\n_timer_ task:\n\tend quest\n"
	diags := lint(t, text, Options{})
	d := only(t, diags, diag.LntSymbolVariation)
	if d.Message != "__timer_ is not a valid variation for type 'Clock'." {
		t.Errorf("message = %q", d.Message)
	}
}

func TestBlocks(t *testing.T) {
	diags := lint(t, "Quest: S0000001\n", Options{})
	want := []string{
		"SYN1002 Block 'QRC' is missing.",
		"SYN1002 Block 'QBN' is missing.",
	}
	if diff := cmp.Diff(want, messages(diags)); diff != "" {
		t.Errorf("diagnostics (-want +got):\n%s", diff)
	}

	// обычный текстовый файл не является квестом
	if diags := lint(t, "Some notes about quests.\n", Options{}); count(diags, diag.SynBlockMissing) != 0 {
		t.Errorf("plain text reported missing blocks: %v", messages(diags))
	}

	q := parse(t, "QBN:\n   what is this\n")
	d := only(t, Lint(q, Options{}).Items(), diag.SynUndefinedExpression)
	if d.Message != "Undefined expression inside block 'QBN'." {
		t.Errorf("message = %q", d.Message)
	}
	if got := d.Primary.Text(q.File); got != "what is this" {
		t.Errorf("span covers %q", got)
	}
}

func TestDisabledChecks(t *testing.T) {
	text := "QBN:\nItem gold gold\n"
	all := lint(t, text, Options{})
	if count(all, diag.LntUnusedSymbol) != 1 || count(all, diag.StyNamingConvention) != 1 {
		t.Fatalf("baseline = %v", messages(all))
	}
	some := lint(t, text, Options{Disabled: []Check{CheckUnused, CheckNaming}})
	if len(some) != 0 {
		t.Errorf("disabled checks still reported: %v", messages(some))
	}
}

func TestParseCheck(t *testing.T) {
	if c, err := ParseCheck(" Unused "); err != nil || c != CheckUnused {
		t.Errorf("ParseCheck = %v,%v", c, err)
	}
	if _, err := ParseCheck("spelling"); err == nil || !strings.Contains(err.Error(), "spelling") {
		t.Errorf("expected error naming the check, got %v", err)
	}
	if len(Checks()) != len(allChecks) {
		t.Error("Checks must list every check")
	}
}
