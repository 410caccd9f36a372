// Package trace records what quill is doing while it formats.
//
// Tracing is off unless asked for:
//
//	quill fmt --trace=- --trace-level=detail ./conf
//
// # Tracers
//
//   - Nop: used when tracing is disabled
//   - StreamTracer: writes every event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// A level selects the scopes that are recorded. LevelPhase keeps ScopeDriver
// and ScopePass events, LevelDetail adds ScopeFile, LevelDebug keeps
// everything including ScopeNode.
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "print", parent)
//	defer span.End("")
package trace
