// Package engine implements the target-side execution engine: a fixed net
// of primitives stepped cycle by cycle at a constant period.
//
// ARCHITECTURE:
//
// Build, then run:
// A Builder collects primitives, wires and netcomm channels. Build checks
// every primitive's parameters once (CheckParameters), resolves wires onto
// an arena of port slots, and computes a topological schedule. The topology
// is fixed for the lifetime of the resulting Net.
//
// Cycle Flow:
//  1. Queued host writes to in channels are applied, stamped with the cycle
//  2. Every port slot is cleared to "no value"
//  3. UpdateData runs for every primitive in schedule order
//  4. WriteActuator runs for every primitive that implements Actuator
//  5. Staged next-state slots are committed
//  6. Out channel values are published, then the cycle counter advances
//
// A FaultError from any primitive aborts the cycle before step 4: nothing is
// committed or published and the net stays faulted. Every later Step returns
// an ErrCodeFaulted error; the supervisor tears the net down.
//
// CRITICAL PATTERNS:
//
// Deterministic Scheduling:
// Primitives run in Kahn topological order over data edges, ties broken by
// insertion order. Latched inputs (delays) read committed state and create
// no ordering edge, which is how feedback loops are expressed. Any other
// cycle is a build error naming the cycle path.
//
// Logical Clock:
// Cycles are numbered from 0 by CycleClock. Time is cycle*period; wall time
// only paces Run and counts overruns.
//
// Single Writer:
// One goroutine steps a net. Netcomm channels are the only state shared with
// other goroutines.
package engine
