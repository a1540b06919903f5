package prim

import (
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// Delay outputs the value its input had on the previous cycle, absence
// included. On cycle 0 it outputs the "initial" parameter, or no value.
//
// The input is latched, so a delay may close a feedback loop. The pending
// value lives in a state slot that the net commits after the cycle.
type Delay struct {
	initial ir.Value
	ins     []engine.PortSpec
	outs    []engine.PortSpec
	slot    engine.StateSlot
}

// NewDelay returns a one-cycle delay of kind k. initial may be nil.
func NewDelay(k ir.Kind, initial ir.Value) *Delay {
	return &Delay{
		initial: initial,
		ins:     []engine.PortSpec{{Name: "in", Kind: k, Latched: true}},
		outs:    outPort(k),
	}
}

func newDelay(spec ir.NodeSpec) (engine.Primitive, error) {
	initial, _, err := paramsOf(spec).typed("initial", spec.Type)
	if err != nil {
		return nil, err
	}
	return NewDelay(spec.Type, initial), nil
}

func (p *Delay) Kind() string               { return KindDelay }
func (p *Delay) Inputs() []engine.PortSpec  { return p.ins }
func (p *Delay) Outputs() []engine.PortSpec { return p.outs }

func (p *Delay) BindKind(k ir.Kind) { bindGeneric(k, p.ins, p.outs) }

func (p *Delay) CheckParameters(env *engine.Env) error {
	if k := p.outs[0].Kind; p.initial != nil && k != ir.KindInvalid && p.initial.Kind() != k {
		return env.Invalid("initial value is %s, want %s", p.initial.Kind(), k)
	}
	p.slot = env.AllocState(p.initial)
	return nil
}

func (p *Delay) UpdateData(cx *engine.Cycle) error {
	cx.Output(0, cx.State(p.slot))
	return nil
}

func (p *Delay) WriteActuator(cx *engine.Cycle) error {
	v, _ := cx.Input(0)
	cx.Stage(p.slot, v)
	return nil
}
