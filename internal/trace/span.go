package trace

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return seqCounter.Add(1)
}

func nextSpanID() uint64 {
	return spanCounter.Add(1)
}

// goroutineID reads the id from the "goroutine 123 [running]:" header of
// runtime.Stack. Zero when the header cannot be parsed.
func goroutineID() uint64 {
	var buf [64]byte
	line := buf[:runtime.Stack(buf[:], false)]
	line, ok := bytes.CutPrefix(line, []byte("goroutine "))
	if !ok {
		return 0
	}
	digits, _, ok := bytes.Cut(line, []byte{' '})
	if !ok {
		return 0
	}
	gid, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span is one unit of work: a pass over the workspace or a single document.
// End closes it; a span of a disabled tracer is a no-op.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	gid     uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

func (s *Span) live() bool {
	return s != nil && s.tracer != nil && s.tracer.Enabled()
}

// Begin starts a span under parent (0 for a root) and emits SpanBegin.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:  t,
		id:      nextSpanID(),
		parent:  parent,
		gid:     goroutineID(),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
	}
}

// End emits SpanEnd with detail and the collected extras and returns the
// span duration.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	dur := time.Since(s.started)
	evt := s.event(KindSpanEnd, time.Now(), detail)
	evt.Extra = s.extra
	s.tracer.Emit(evt)
	return dur
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// WithCount is WithExtra for counters such as files or diagnostics.
func (s *Span) WithCount(key string, n int) *Span {
	return s.WithExtra(key, strconv.Itoa(n))
}

// ID returns the span ID, 0 for a no-op span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Start opens a span under the span carried by ctx and returns a context
// carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	span := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	if span.ID() == 0 {
		return ctx, span
	}
	return WithSpanContext(ctx, SpanContext{SpanID: span.id, GID: span.gid}), span
}
