package engine

import (
	"fmt"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Cycle is the per-cycle context handed to UpdateData and WriteActuator.
// It is only valid for the duration of the call.
type Cycle struct {
	net   *Net
	node  *netNode
	index int64
}

// Index returns the cycle index.
func (c *Cycle) Index() int64 { return c.index }

// Time returns the logical time of the cycle in seconds.
func (c *Cycle) Time() float64 { return c.net.clock.TimeOf(c.index) }

// Period returns the cycle period in seconds.
func (c *Cycle) Period() float64 { return c.net.period }

// NodeName returns the running primitive's name.
func (c *Cycle) NodeName() string { return c.node.name }

// Input returns the value on input i, or false for "no value".
func (c *Cycle) Input(i int) (ir.Value, bool) {
	src := c.node.inputs[i]
	if src < 0 {
		return nil, false
	}
	v := c.net.values[src]
	return v, v != nil
}

// Output sets output i. nil means "no value", which is also the default.
func (c *Cycle) Output(i int, v ir.Value) {
	c.net.values[c.node.outBase+i] = v
}

// State returns the committed value of a state slot.
func (c *Cycle) State(s StateSlot) ir.Value {
	return c.net.state[s]
}

// Stage sets the value a state slot will hold from the next cycle on.
// Staged values are committed only if the whole cycle succeeds.
func (c *Cycle) Stage(s StateSlot, v ir.Value) {
	c.net.next[s] = v
	if !c.net.staged[s] {
		c.net.staged[s] = true
		c.net.stagedList = append(c.net.stagedList, s)
	}
}

// Publish queues v for the out channel ch. Publication happens after the
// cycle commits, stamped with this cycle's index.
func (c *Cycle) Publish(ch *netcomm.Channel, v ir.Value) {
	c.net.publishes = append(c.net.publishes, publish{ch: ch, value: v})
}

// Fault returns a fault for the running primitive. Returning it from
// UpdateData or WriteActuator aborts the cycle and faults the net.
func (c *Cycle) Fault(format string, args ...any) *FaultError {
	return &FaultError{
		Code:    ErrCodeFault,
		Net:     c.net.name,
		Node:    c.node.name,
		Cycle:   c.index,
		Message: fmt.Sprintf(format, args...),
	}
}

type publish struct {
	ch    *netcomm.Channel
	value ir.Value
}
