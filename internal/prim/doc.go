// Package prim is the closed instruction set of primitives a net is built
// from.
//
// Every primitive is written once against the ir wire-value union, and its
// port kinds are fixed at construction from the node's Type. Primitives are
// strict unless documented otherwise: "no value" on any input yields "no
// value" on every output for that cycle. The exceptions observe or create
// absence on purpose:
//
//	select   a missing condition yields no value; a missing chosen branch too
//	isnull   reports whether its input has a value
//	setnull  drops its input while "when" is true
//	delay    outputs last cycle's input, including its absence
//
// Integer division by a zero received on the wire is a fault: the cycle is
// aborted and the net stops. Double division follows IEEE-754.
//
// The Registry maps kind names to factories; Assemble turns an ir.NetSpec
// into a built engine.Net, inserting netcomm_in and netcomm_out primitives
// for channel bindings.
package prim
