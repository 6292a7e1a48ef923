// Package exportcheck validates that captured state can safely cross a
// process boundary before a deferred computation is dispatched to a
// remote worker.
//
// Some values embed a handle that is only meaningful inside the process
// that created it: an open file, a network connection, a native memory
// pointer, a handle into another runtime. Serializing such a value does
// not fail cleanly. It produces a dead handle on the worker side, often
// discovered only after the expensive remote computation has already run.
// Exportcheck walks the full object graph reachable from each captured
// variable, classifies every reachable node against an extensible
// taxonomy of opaque handle types, and, under a caller-selected policy,
// aborts with an actionable diagnostic, collects non-fatal warnings, or
// skips the check entirely.
//
// # Quick Start
//
//	v, err := engine.New(
//	    engine.WithLogger(logger),
//	)
//	res, err := v.Validate(ctx, vars, exportcheck.PolicyError)
//
// # Architecture
//
// The root package holds the core value types (Policy, Check, Finding,
// Result, OpaqueReferenceError). The graph package walks captured object
// graphs, taxonomy classifies nodes, and the engine package orchestrates
// both under a policy, wrapped in a composable middleware chain.
//
// Exportcheck is a library, not a service: the surrounding dispatch
// framework supplies the captured variables and consumes the result.
package exportcheck
