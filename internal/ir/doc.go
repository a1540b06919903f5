// Package ir provides the canonical intermediate representation shared by the
// value graph and the execution engine.
//
// It holds two families of types, and imports nothing internal:
//   - Wire values: the closed set of values a port, channel or constant can
//     carry (Bool, Int, Double, Array). "No value" is the absence of a Value,
//     never a sentinel Value.
//   - Net descriptions: plain data (NetSpec) describing primitives, wires and
//     netcomm channels, produced by the compiler and consumed by the assembler.
//
// Identity digests (node interning, description hashes) are computed from
// MarshalCanonical output with domain separation, see hash.go.
package ir
