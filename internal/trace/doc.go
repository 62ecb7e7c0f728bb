// Package trace is the structured event log of the bundler.
//
// Every build phase (graph construction, emission, output) opens a pass span
// and every loaded module opens a module span, so a slow or failing build can
// be followed module by module.
//
// # Usage
//
//	minipack build --trace=- --trace-level=detail src/main.js
//	minipack build --trace=build.ndjson --trace-level=debug
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failure points
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: per-module events
//   - LevelDebug: everything, including per-import resolution points
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "graph", 0)
//	defer span.End("")
package trace
