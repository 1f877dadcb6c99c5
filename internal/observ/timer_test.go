package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	parse := timer.Begin("parse")
	timer.End(parse, "3 files")
	lint := timer.Begin("lint")
	timer.End(lint, "")
	again := timer.Begin("parse")
	timer.End(again, "")
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(report.Phases))
	}
	if report.Phases[0].Note != "3 files" {
		t.Errorf("note = %q", report.Phases[0].Note)
	}
	if timer.Duration("parse") < 0 || timer.Duration("missing") != 0 {
		t.Error("Duration mismatch")
	}

	summary := timer.Summary()
	for _, want := range []string{"timings:", "parse", "lint", "// 3 files", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary misses %q:\n%s", want, summary)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Errorf("empty report = %+v", r)
	}
	if got := Millis(1500 * time.Microsecond); got != 1.5 {
		t.Errorf("Millis = %v", got)
	}
}
