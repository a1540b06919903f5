// Package compiler turns CUE net descriptions into ir.NetSpec values.
//
// A description lives under the top-level "net" struct, one field per net:
//
//	net: arm: {
//		period: 0.01
//		nodes: {
//			tick: kind: "counter"
//			prev: {kind: "delay", type: "int", params: initial: 0}
//		}
//		wires: [{from: "tick.out", to: "prev.in"}]
//		channels: "arm.prev": {direction: "out", kind: "int", port: "prev.out"}
//	}
//
// Field order is significant: nodes are declared, and therefore scheduled on
// ties, in source order. CompileNet fails fast with a positioned
// *CompileError; Validate reports every structural problem of a compiled
// description; AnalyzeCycles classifies feedback loops.
package compiler
