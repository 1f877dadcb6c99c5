// Package trace records what the analyzer is doing, to find slow documents
// and hangs in large workspaces.
//
// # Usage
//
//	dftemplate diag --trace=- --trace-level=detail quests/
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last events in memory for a dump on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// LevelPhase emits ScopeDriver and ScopePass events (discover, analyze,
// quest checks). LevelDetail adds ScopeDocument events, one span per quest
// file. LevelDebug emits everything.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "analyze", 0)
//	defer span.End("")
package trace
