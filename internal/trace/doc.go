// Package trace records spans around the elaboration pipeline.
//
// Enable it from the command line:
//
//	capsule diag --trace=- --trace-level=detail fixtures/
//
// Levels gate scopes: phase shows driver and pass spans, detail adds one
// span per file and debug adds one per closure. A ring tracer keeps the
// last events in memory so they can be dumped when a run fails.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "sema", 0)
//	defer span.End("")
package trace
