package prim

import (
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// IsNull outputs true when its input has no value this cycle. Its output
// always has a value.
type IsNull struct {
	ins []engine.PortSpec
}

func newIsNull(spec ir.NodeSpec) (engine.Primitive, error) {
	return &IsNull{ins: []engine.PortSpec{{Name: "in", Kind: spec.Type}}}, nil
}

func (p *IsNull) Kind() string                      { return KindIsNull }
func (p *IsNull) Inputs() []engine.PortSpec         { return p.ins }
func (p *IsNull) Outputs() []engine.PortSpec        { return outPort(ir.KindBool) }
func (p *IsNull) CheckParameters(*engine.Env) error { return nil }
func (p *IsNull) BindKind(k ir.Kind)                { bindGeneric(k, p.ins) }

func (p *IsNull) UpdateData(cx *engine.Cycle) error {
	_, ok := cx.Input(0)
	cx.Output(0, ir.Bool(!ok))
	return nil
}

// SetNull forwards its input unless "when" is true, in which case it
// outputs no value. With "when" unconnected it never forwards: the output
// is permanently absent.
type SetNull struct {
	ins  []engine.PortSpec
	outs []engine.PortSpec
}

func newSetNull(spec ir.NodeSpec) (engine.Primitive, error) {
	return &SetNull{
		ins: []engine.PortSpec{
			{Name: "in", Kind: spec.Type, Optional: true},
			{Name: "when", Kind: ir.KindBool, Optional: true},
		},
		outs: outPort(spec.Type),
	}, nil
}

func (p *SetNull) Kind() string                      { return KindSetNull }
func (p *SetNull) Inputs() []engine.PortSpec         { return p.ins }
func (p *SetNull) Outputs() []engine.PortSpec        { return p.outs }
func (p *SetNull) CheckParameters(*engine.Env) error { return nil }
func (p *SetNull) BindKind(k ir.Kind)                { bindGeneric(k, p.ins, p.outs) }

func (p *SetNull) UpdateData(cx *engine.Cycle) error {
	when, ok := cx.Input(1)
	if !ok || bool(when.(ir.Bool)) {
		return nil
	}
	if v, ok := cx.Input(0); ok {
		cx.Output(0, v)
	}
	return nil
}
