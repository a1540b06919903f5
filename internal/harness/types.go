package harness

import (
	"github.com/roach88/rcore/internal/ir"
)

// Trace event types.
const (
	EventUpdate = "update"
	EventFault  = "fault"
)

// TraceEvent is one entry of a scenario trace: an applied channel update,
// or the fault that stopped the net.
type TraceEvent struct {
	Type      string       `json:"type"` // "update" or "fault"
	Cycle     int64        `json:"cycle"`
	Key       string       `json:"key,omitempty"`
	Direction ir.Direction `json:"direction,omitempty"`
	Value     ir.Value     `json:"-"`
	Node      string       `json:"node,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// ValueString returns the netcomm string form of the update value.
func (e TraceEvent) ValueString() string {
	return ir.FormatValue(e.Value)
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Trace contains every applied update in order, then the fault if any.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps each channel key to its last value.
	State map[string]ir.Value `json:"-"`

	// Cycles is how many cycles completed.
	Cycles int64 `json:"cycles"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]ir.Value),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddUpdateTrace adds a channel update to the trace.
func (r *Result) AddUpdateTrace(dir ir.Direction, key string, v ir.Value, cycle int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventUpdate,
		Cycle:     cycle,
		Key:       key,
		Direction: dir,
		Value:     v,
	})
}

// AddFaultTrace adds the net's fault to the trace.
func (r *Result) AddFaultTrace(node, message string, cycle int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    EventFault,
		Cycle:   cycle,
		Node:    node,
		Message: message,
	})
}

// Fault returns the fault event, if the trace has one.
func (r *Result) Fault() (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Type == EventFault {
			return e, true
		}
	}
	return TraceEvent{}, false
}
