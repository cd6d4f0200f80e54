// Package acta provides a lightweight, embeddable asynchronous
// action-execution engine for Go.
//
// Acta is designed for backend services that need in-process background
// work with per-action authorization, pre-dispatch hooks, retries, and
// action chaining, without external infrastructure. The queue and the
// workers live entirely inside a single process's memory.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Formality / Plan
//  2. Action
//  3. Production
//  4. Site
//  5. Sequence
//  6. Life
//
// # Formality and Plan
//
// A Formality is the mutable registry mapping handler signatures to
// functions. Build() freezes it into a Plan, the shared form consumed at
// dispatch time. Plan lookup is destructive: resolving a signature
// removes its handler, so each registration is dispatched exactly once
// across the Plan's lifetime. Register a signature again (or build a
// fresh Plan) for repeated dispatch.
//
// # Action
//
// An Action is one schedulable unit of work: metadata, an argument
// payload, a license flag, and a reference to the Plan holding its
// handler. Executing an action runs a fixed pipeline: resolve the name,
// check the license, honor an optional delay, run the named hooks, then
// dispatch the handler with retries and exponential backoff. A
// successful action may chain into a follow-up action, which runs as a
// direct continuation on the same worker.
//
// # Production and Sequence
//
// Actions are assigned into a Production, the concurrent work queue. A
// Sequence runs the worker pool that drains it: each worker polls the
// queue, hands any action to the Site dispatcher, and reports the
// terminal result to the configured observers and the journal. A single
// action's failure never terminates a worker.
//
// # Life
//
// Life is the shared execution context handed to every action: the hook
// registry (Span), the configuration (Fate), a memoizing result cache,
// and auxiliary cross-action state (Karma). Each store is independently
// synchronized.
//
// # Example
//
//	f := acta.NewFormality()
//	_ = f.Add(acta.NewSignature("greet"), func(ctx context.Context, arg any) (any, error) {
//	    return "hello " + arg.(string), nil
//	})
//	plan := f.Build()
//
//	seq := acta.NewSequence(acta.NewLife(nil))
//	seq.Assign(acta.NewActionBuilder("greet", plan).Content("world").Licensed().Build())
//
//	_ = seq.Run(ctx)
//	defer seq.Stop()
//
// Acta is intentionally not crash-durable: actions are not persisted
// across restarts and there is no cross-process work sharing. The
// optional SQLite journal records terminal results for reporting only.
package acta
