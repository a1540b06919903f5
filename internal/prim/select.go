package prim

import (
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// Select outputs a when cond is true and b when it is false. A missing
// condition yields no value whatever the branches hold; only the chosen
// branch needs a value.
type Select struct {
	ins  []engine.PortSpec
	outs []engine.PortSpec
}

// NewSelect returns a select over branches of kind k.
func NewSelect(k ir.Kind) *Select {
	return &Select{
		ins: []engine.PortSpec{
			{Name: "cond", Kind: ir.KindBool},
			{Name: "a", Kind: k},
			{Name: "b", Kind: k},
		},
		outs: outPort(k),
	}
}

func newSelect(spec ir.NodeSpec) (engine.Primitive, error) {
	return NewSelect(spec.Type), nil
}

func (p *Select) Kind() string                      { return KindSelect }
func (p *Select) Inputs() []engine.PortSpec         { return p.ins }
func (p *Select) Outputs() []engine.PortSpec        { return p.outs }
func (p *Select) CheckParameters(*engine.Env) error { return nil }
func (p *Select) BindKind(k ir.Kind)                { bindGeneric(k, p.ins, p.outs) }

func (p *Select) UpdateData(cx *engine.Cycle) error {
	cond, ok := cx.Input(0)
	if !ok {
		return nil
	}
	branch := 2
	if cond.(ir.Bool) {
		branch = 1
	}
	if v, ok := cx.Input(branch); ok {
		cx.Output(0, v)
	}
	return nil
}
