package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rcore/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, describeEvent(event))
		}
	}
	return buf.String()
}

func describeEvent(e TraceEvent) string {
	if e.Type == EventFault {
		return fmt.Sprintf("cycle %d fault at %s: %s", e.Cycle, e.Node, e.Message)
	}
	return fmt.Sprintf("cycle %d %s %s=%s", e.Cycle, e.Direction, e.Key, e.ValueString())
}

func describeMatch(m UpdateMatch) string {
	var parts []string
	parts = append(parts, m.Key)
	if m.Value != nil {
		parts = append(parts, fmt.Sprintf("value %v", m.Value))
	}
	if m.Cycle != nil {
		parts = append(parts, fmt.Sprintf("cycle %d", *m.Cycle))
	}
	if m.Direction != "" {
		parts = append(parts, "direction "+m.Direction)
	}
	return strings.Join(parts, " ")
}

// matches reports whether an update event satisfies m. Expected values are
// coerced to the event's kind, so an int matches a double channel.
func matches(e TraceEvent, m UpdateMatch) bool {
	if e.Type != EventUpdate {
		return false
	}
	if m.Key != "" && e.Key != m.Key {
		return false
	}
	if m.Cycle != nil && e.Cycle != *m.Cycle {
		return false
	}
	if m.Direction != "" && string(e.Direction) != m.Direction {
		return false
	}
	if m.Value != nil && !valueMatches(e.Value, m.Value) {
		return false
	}
	return true
}

func valueMatches(actual ir.Value, expected any) bool {
	if actual == nil {
		return false
	}
	want, err := wireValue(expected)
	if err != nil {
		return false
	}
	want, err = ir.Coerce(want, actual.Kind())
	if err != nil {
		return false
	}
	return ir.Equal(actual, want)
}

// assertTraceContains checks that some update matches the assertion.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.UpdateMatch) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "update " + describeMatch(assertion.UpdateMatch),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the updates appear in the listed order.
// Updates don't need to be consecutive (intervening updates are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for i, want := range assertion.Updates {
		found := false
		for ; pos < len(trace); pos++ {
			if matches(trace[pos], want) {
				found = true
				pos++
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%d updates in order", len(assertion.Updates)),
				Actual:   fmt.Sprintf("update %d (%s) not found after the previous one", i+1, describeMatch(want)),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that key is updated exactly the specified number
// of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.UpdateMatch) {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d updates of %s", *assertion.Count, describeMatch(assertion.UpdateMatch)),
			Actual:   fmt.Sprintf("%d updates", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the last value of every listed channel.
// Keys are checked in sorted order so the first failure is deterministic.
func assertFinalState(state map[string]ir.Value, assertion Assertion) error {
	for _, key := range ir.SortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		actual, ok := state[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("channel %s = %v", key, expected),
				Actual:   fmt.Sprintf("channel %s has no value", key),
			}
		}
		if !valueMatches(actual, expected) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("channel %s = %v", key, expected),
				Actual:   fmt.Sprintf("channel %s = %s (%s)", key, ir.FormatValue(actual), actual.Kind()),
			}
		}
	}
	return nil
}

// assertFault checks that the net faulted, at the given node and cycle
// when set.
func assertFault(result *Result, assertion Assertion) error {
	fault, ok := result.Fault()
	if !ok {
		return &AssertionError{
			Type:     AssertFault,
			Expected: "net faulted",
			Actual:   fmt.Sprintf("no fault after %d cycles", result.Cycles),
			Trace:    result.Trace,
		}
	}
	if assertion.Node != "" && fault.Node != assertion.Node {
		return &AssertionError{
			Type:     AssertFault,
			Expected: "fault at node " + assertion.Node,
			Actual:   "fault at node " + fault.Node,
			Trace:    result.Trace,
		}
	}
	if assertion.Cycle != nil && fault.Cycle != *assertion.Cycle {
		return &AssertionError{
			Type:     AssertFault,
			Expected: fmt.Sprintf("fault in cycle %d", *assertion.Cycle),
			Actual:   fmt.Sprintf("fault in cycle %d", fault.Cycle),
			Trace:    result.Trace,
		}
	}
	if assertion.Message != "" && !strings.Contains(fault.Message, assertion.Message) {
		return &AssertionError{
			Type:     AssertFault,
			Expected: fmt.Sprintf("fault message containing %q", assertion.Message),
			Actual:   fault.Message,
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			if assertion.Count == nil {
				err = fmt.Errorf("assertion[%d]: trace_count requires count", i)
			} else {
				err = assertTraceCount(result.Trace, assertion)
			}
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertFault:
			err = assertFault(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
