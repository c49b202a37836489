// Package trace records what a lint run is doing: which modules and checks
// run, how long they take, and the warnings printed along the way.
//
// # Usage
//
//	ocahooks --trace=- --trace-level=detail addons/
//
// # Tracers
//
//   - Nop: used when tracing is off
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last events in memory, dumped after a checker crash
//   - ModeBoth: a stream and a ring fed with the same events
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: the run span and crash notices
//   - LevelPhase: the run and each module
//   - LevelDetail: adds every check method
//   - LevelDebug: adds every parsed or rewritten file
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx = trace.WithModule(ctx, "sale_extra")
//	ctx, span := trace.StartSpan(ctx, trace.ScopeModule, "module")
//	defer span.End("")
//
// Events emitted under a module context carry its name.
package trace
