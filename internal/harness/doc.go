// Package harness runs conformance scenarios against real nets.
//
// A scenario names CUE net descriptions, picks one net, drives it with host
// writes and cycle steps, and asserts on the resulting trace of channel
// updates and on the final channel values.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: ratio_fault
//	description: "What this scenario validates"
//	specs:
//	  - ratio.cue
//	net: ratio
//	instance_id: test-net-ratio
//	steps:
//	  - step: 3
//	  - write: { key: ratio.den, value: 0 }
//	  - step: 1
//	assertions:
//	  - type: trace_contains
//	    key: ratio.out
//	    value: 2
//	  - type: final_state
//	    expect: { ratio.out: 2 }
//	  - type: fault
//	    node: quot
//	    cycle: 3
//
// Spec paths are relative to the scenario file.
//
// # Assertion Types
//
//   - trace_contains: an update of key (optionally with value, cycle and
//     direction) appears in the trace
//   - trace_order: the listed updates appear in order, not necessarily
//     consecutively
//   - trace_count: key is updated exactly count times
//   - final_state: the last value of each listed channel
//   - fault: the net faulted, optionally at node and cycle
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory store with a fixed instance ID
// (scenario.instance_id, or "test-net-default"). Nets are cycle-stepped, so
// the same scenario always produces a byte-identical trace for golden file
// comparison.
package harness
