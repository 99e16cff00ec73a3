// Package trace records where time goes during an analysis run.
//
// Enable it from the command line:
//
//	portlint --trace=- --trace-level=detail Assets/Generated/Graph.cs
//
// Spans nest driver → file → rule. With tracing off the Nop tracer is used
// and spans cost nothing.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartFile(ctx, path)
//	defer span.End("")
package trace
