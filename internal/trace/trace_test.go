package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"": LevelOff, "OFF": LevelOff, "phase": LevelPhase, " Detail ": LevelDetail, "debug": LevelDebug}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestShouldEmit(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeDocument) {
		t.Error("phase level must stop at passes")
	}
	if !LevelDetail.ShouldEmit(ScopeDocument) {
		t.Error("detail level must include documents")
	}
	if LevelOff.ShouldEmit(ScopeDriver) || LevelError.ShouldEmit(ScopeDriver) {
		t.Error("off and error levels emit nothing")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("off tracer must be disabled")
	}
	span := Begin(tr, ScopeDriver, "noop", 0)
	if span.ID() != 0 || span.End("") != 0 {
		t.Error("disabled tracer must produce inert spans")
	}
}

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopePass, "analyze")
	_, inner := Start(ctx, ScopeDocument, "document:a.txt")
	inner.WithExtra("cache", "hit").WithCount("diagnostics", 3).End("")
	outer.End("done")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	if events[1].ParentID != outer.ID() {
		t.Errorf("inner parent = %d, want %d", events[1].ParentID, outer.ID())
	}
	if events[2].Kind != KindSpanEnd || events[2].Extra["cache"] != "hit" || events[2].Extra["diagnostics"] != "3" {
		t.Errorf("inner end = %+v", events[2])
	}
	if events[3].Detail != "done" {
		t.Errorf("outer end detail = %q", events[3].Detail)
	}
}

func TestRingWrapsAround(t *testing.T) {
	ring := NewRingTracer(2, LevelPhase)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeDriver, name, "", 0)
	}
	// документы отбрасываются на уровне phase
	Point(ring, ScopeDocument, "skipped", "", 0)

	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "b,c" {
		t.Errorf("snapshot = %v", names)
	}
}

func TestStreamFormats(t *testing.T) {
	var text, ndjson bytes.Buffer
	multi := NewMultiTracer(LevelDetail,
		NewStreamTracer(&text, LevelDetail, FormatText),
		NewStreamTracer(&ndjson, LevelDetail, FormatNDJSON),
	)
	Point(multi, ScopePass, "lint", "quest.txt", 0)

	if !strings.Contains(text.String(), "[pass] • lint (quest.txt)") {
		t.Errorf("text = %q", text.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(ndjson.Bytes(), &decoded); err != nil {
		t.Fatalf("ndjson = %q: %v", ndjson.String(), err)
	}
	if decoded["name"] != "lint" || decoded["kind"] != "point" {
		t.Errorf("decoded = %v", decoded)
	}
	if err := multi.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	if detectFormat("run.ndjson") != FormatNDJSON || detectFormat("run.jsonl") != FormatNDJSON {
		t.Error("json lines paths must use NDJSON")
	}
	if detectFormat("run.log") != FormatText || detectFormat("") != FormatText {
		t.Error("other paths must use text")
	}
}
