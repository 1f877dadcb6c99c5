package testkit

import (
	"strings"
	"testing"

	"dftemplate/internal/kb"
	"dftemplate/internal/parser"
	"dftemplate/internal/quest"
	"dftemplate/internal/source"
)

const sample = `Quest: S0000001
DisplayName: Test

QRC:

QuestorOffer:  [1000]
Will you help %pcn?

Message:  1011
Thanks.

QBN:
Item _gold_ gold
Clock _c_ 00:10

start timer _c_

_start_ task:
	clicked item _gold_
	say 1011

_c_ task:
	end quest
`

func parse(t *testing.T, text string) *quest.Quest {
	t.Helper()
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("quest.txt", []byte(text)))
	return parser.ParseFile(sf, kb.Default()).Quest
}

func TestCheckSpanInvariants(t *testing.T) {
	q := parse(t, sample)
	if err := CheckSpanInvariants(q); err != nil {
		t.Fatal(err)
	}
	if len(q.Qbn.EntryPoint) == 0 || q.Qbn.Tasks.Len() != 2 {
		t.Fatalf("unexpected model: entry=%d tasks=%d", len(q.Qbn.EntryPoint), q.Qbn.Tasks.Len())
	}
}

func TestCheckSpanInvariantsCatchesBrokenSpans(t *testing.T) {
	q := parse(t, sample)
	task, _ := q.GetTask("_start_")
	task.Actions[0].Params[2].Span.End = task.Actions[0].Line.End + 5

	err := CheckSpanInvariants(q)
	if err == nil || !strings.Contains(err.Error(), "outside line") {
		t.Errorf("err = %v", err)
	}

	if err := CheckSpanInvariants(nil); err == nil {
		t.Error("expected error for nil quest")
	}
}
