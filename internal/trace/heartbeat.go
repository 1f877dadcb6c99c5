package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic events. Heartbeats that continue without SpanEnd
// events point at a document that never finishes.
type Heartbeat struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// StartHeartbeat starts emitting to tracer every interval. It returns nil
// when tracing is disabled or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{})}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ticker.C:
				tracer.Emit(&Event{
					Time:   time.Now(),
					Seq:    NextSeq(),
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					GID:    goroutineID(),
					Name:   "heartbeat",
					Detail: "#" + strconv.Itoa(n),
				})
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

// Stop ends the heartbeat and waits for the goroutine. Safe to call on nil
// and more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
}
