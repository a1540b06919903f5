// Package value implements the host-side value graph: immutable,
// structurally shared expressions over time-varying quantities.
//
// Every node lives in a Graph arena and is interned by a canonical structural
// digest (kind, declared type, operand digests, extra attributes), so building
// the same expression twice yields the identical *Node and equality is a
// pointer (or Handle) comparison.
//
// Operator factories fold constants and apply identity/absorbing shortcuts
// before interning. Callers rely on this to prove a quantity constant and skip
// the execution engine for it.
//
// Two notions of value:
//
//   - ApproximateValue: the best cached value, computed from leaf caches
//     without touching the execution engine. Lock-free, callable from any
//     goroutine.
//   - CurrentValue: the authoritative value, read through the graph's
//     Runtime. May block, may fail.
//
// Writable leaves notify listeners synchronously on the writer's goroutine.
// A listener must not call Set on the leaf that notified it; this is a caller
// obligation and is not enforced.
package value
