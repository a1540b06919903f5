package prim

import (
	"fmt"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

func outPort(k ir.Kind) []engine.PortSpec {
	return []engine.PortSpec{{Name: "out", Kind: k}}
}

// bindGeneric sets every generic port to k.
func bindGeneric(k ir.Kind, ports ...[]engine.PortSpec) {
	for _, ps := range ports {
		for i := range ps {
			if ps[i].Kind == ir.KindInvalid {
				ps[i].Kind = k
			}
		}
	}
}

// Const outputs a build-time value every cycle.
//
// Params: value (required). Type, when set, coerces it.
type Const struct {
	value ir.Value
	outs  []engine.PortSpec
}

// NewConst returns a constant source.
func NewConst(v ir.Value) *Const {
	return &Const{value: v, outs: outPort(v.Kind())}
}

func newConst(spec ir.NodeSpec) (engine.Primitive, error) {
	v, ok, err := paramsOf(spec).typed("value", spec.Type)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("parameter %q is required", "value")
	}
	return NewConst(v), nil
}

func (p *Const) Kind() string                      { return KindConst }
func (p *Const) Inputs() []engine.PortSpec         { return nil }
func (p *Const) Outputs() []engine.PortSpec        { return p.outs }
func (p *Const) CheckParameters(*engine.Env) error { return nil }

func (p *Const) UpdateData(cx *engine.Cycle) error {
	cx.Output(0, p.value)
	return nil
}

// Counter is a monotonic integer source: start on cycle 0, then +step per
// cycle.
//
// Params: start (int, default 0), step (int, default 1, must be positive).
type Counter struct {
	start, step int64
	slot        engine.StateSlot
}

func newCounter(spec ir.NodeSpec) (engine.Primitive, error) {
	if spec.Type != ir.KindInvalid {
		if err := requireType(spec, ir.KindInt); err != nil {
			return nil, err
		}
	}
	ps := paramsOf(spec)
	start, err := ps.int("start", 0)
	if err != nil {
		return nil, err
	}
	step, err := ps.int("step", 1)
	if err != nil {
		return nil, err
	}
	return &Counter{start: start, step: step}, nil
}

func (p *Counter) Kind() string               { return KindCounter }
func (p *Counter) Inputs() []engine.PortSpec  { return nil }
func (p *Counter) Outputs() []engine.PortSpec { return outPort(ir.KindInt) }

func (p *Counter) CheckParameters(env *engine.Env) error {
	if p.step <= 0 {
		return env.Invalid("step must be positive, got %d", p.step)
	}
	p.slot = env.AllocState(ir.Int(p.start))
	return nil
}

func (p *Counter) UpdateData(cx *engine.Cycle) error {
	cx.Output(0, cx.State(p.slot))
	return nil
}

func (p *Counter) WriteActuator(cx *engine.Cycle) error {
	cx.Stage(p.slot, cx.State(p.slot).(ir.Int)+ir.Int(p.step))
	return nil
}
