// Package queryir is the query representation for recorded channel
// updates.
//
// Callers (the trace command, replay, tests) describe what they want from
// a recording as a Query over a run; the querysql package compiles it to
// parameterized SQL for the store. Keeping the description separate from
// SQL means filters can be validated, printed and tested without a
// database.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so backend compilers can switch
// exhaustively.
//
// Queries:
//   - Updates: every matching update of a run, in cycle order
//   - Latest: the last matching update per channel (key and direction)
//
// Predicates:
//   - KeyEquals, KeyPrefix: channel selection
//   - DirectionIs: in or out
//   - CycleRange: inclusive cycle bounds
//   - ValueEquals: exact payload match (kind and netcomm string form)
//   - And: conjunction
//
// There is no Or. Two keys are two queries, or a KeyPrefix.
package queryir
