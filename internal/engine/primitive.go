package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// PortSpec describes one input or output port of a primitive.
type PortSpec struct {
	// Name is unique among the primitive's inputs (or outputs).
	Name string

	// Kind is the wire kind carried. KindInvalid marks a generic port: all
	// generic ports of a primitive carry one kind, inferred from the wires
	// at build (see KindBinder).
	Kind ir.Kind

	// Latched inputs read a value produced in an earlier cycle (delays). They
	// create no scheduling edge, so they may close feedback loops.
	Latched bool

	// Optional inputs may be left unconnected; they read as "no value".
	Optional bool
}

// Primitive is a node of a net.
//
// Lifecycle: CheckParameters runs once at build and must validate params
// and allocate state; it may fail. UpdateData runs every cycle in schedule
// order and writes the primitive's outputs from its inputs and committed
// state.
//
// Ports are fixed at construction: Inputs and Outputs must return the same
// specs on every call.
type Primitive interface {
	Kind() string
	Inputs() []PortSpec
	Outputs() []PortSpec
	CheckParameters(env *Env) error
	UpdateData(cx *Cycle) error
}

// Actuator is implemented by primitives with a second per-cycle pass.
// WriteActuator runs after every UpdateData of the cycle; it stages next
// state and publishes netcomm values.
type Actuator interface {
	WriteActuator(cx *Cycle) error
}

// StateSlot indexes a primitive's persistent state in the net's state arena.
type StateSlot int

// Env is the build-time environment handed to CheckParameters.
type Env struct {
	b    *Builder
	node string
}

// NodeName returns the name of the primitive being checked.
func (e *Env) NodeName() string { return e.node }

// Period returns the net's cycle period in seconds.
func (e *Env) Period() float64 { return e.b.period }

// Bus returns the net's channel registry.
func (e *Env) Bus() *netcomm.Bus { return e.b.bus }

// Logger returns the net's logger.
func (e *Env) Logger() *slog.Logger { return e.b.logger }

// AllocState reserves a persistent state slot holding initial until the
// first commit. initial may be nil ("no value").
func (e *Env) AllocState(initial ir.Value) StateSlot {
	e.b.state = append(e.b.state, initial)
	return StateSlot(len(e.b.state) - 1)
}

// Invalid returns an INVALID_PARAMETER build error for this primitive.
func (e *Env) Invalid(format string, args ...any) *BuildError {
	return &BuildError{
		Code:    ErrCodeInvalidParameter,
		Node:    e.node,
		Message: fmt.Sprintf(format, args...),
	}
}
