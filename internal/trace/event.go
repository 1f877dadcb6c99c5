package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	// KindHeartbeat is a periodic liveness signal.
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole CLI command.
	ScopeDriver Scope = iota + 1
	// ScopePass covers one pass over the workspace.
	ScopePass
	// ScopeDocument covers the analysis of one quest file.
	ScopeDocument
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global sequence number (monotonic)
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	GID      uint64 // goroutine ID
	Name     string // e.g. "analyze", "document:quests/S0000999.txt"
	Detail   string
	Extra    map[string]string
}
