package prim

import (
	"errors"
	"fmt"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// Binary is a strict two-input operation: add, sub, mul, div, min, max,
// lt, le, gt, ge, eq, ne, and, or.
//
// Type is the operand kind. It defaults to bool for and/or and is required
// otherwise.
type Binary struct {
	op   ir.BinaryOp
	ins  []engine.PortSpec
	outs []engine.PortSpec
}

// NewBinary returns op over operands of kind k.
func NewBinary(op ir.BinaryOp, k ir.Kind) (*Binary, error) {
	if k == ir.KindInvalid {
		return nil, fmt.Errorf("%s: type is required", op)
	}
	rk, err := ir.BinaryResultKind(op, k, k)
	if err != nil {
		return nil, err
	}
	return &Binary{
		op:   op,
		ins:  []engine.PortSpec{{Name: "a", Kind: k}, {Name: "b", Kind: k}},
		outs: outPort(rk),
	}, nil
}

func binaryFactory(op ir.BinaryOp) Factory {
	return func(spec ir.NodeSpec) (engine.Primitive, error) {
		k := spec.Type
		if k == ir.KindInvalid && (op == ir.OpAnd || op == ir.OpOr) {
			k = ir.KindBool
		}
		return NewBinary(op, k)
	}
}

func (p *Binary) Kind() string                      { return string(p.op) }
func (p *Binary) Inputs() []engine.PortSpec         { return p.ins }
func (p *Binary) Outputs() []engine.PortSpec        { return p.outs }
func (p *Binary) CheckParameters(*engine.Env) error { return nil }

func (p *Binary) UpdateData(cx *engine.Cycle) error {
	a, ok := cx.Input(0)
	if !ok {
		return nil
	}
	b, ok := cx.Input(1)
	if !ok {
		return nil
	}
	v, err := ir.ApplyBinary(p.op, a, b)
	if err != nil {
		if errors.Is(err, ir.ErrDivisionByZero) {
			return cx.Fault("integer division by zero (%s / %s)", ir.FormatValue(a), ir.FormatValue(b))
		}
		return cx.Fault("%v", err)
	}
	cx.Output(0, v)
	return nil
}

// Unary is a strict one-input operation: neg, abs, not, todouble.
type Unary struct {
	op   ir.UnaryOp
	ins  []engine.PortSpec
	outs []engine.PortSpec
}

// NewUnary returns op over an operand of kind k.
func NewUnary(op ir.UnaryOp, k ir.Kind) (*Unary, error) {
	rk, err := ir.UnaryResultKind(op, k)
	if err != nil {
		return nil, err
	}
	return &Unary{
		op:   op,
		ins:  []engine.PortSpec{{Name: "in", Kind: k}},
		outs: outPort(rk),
	}, nil
}

func unaryFactory(op ir.UnaryOp) Factory {
	return func(spec ir.NodeSpec) (engine.Primitive, error) {
		k := spec.Type
		if k == ir.KindInvalid && op == ir.OpNot {
			k = ir.KindBool
		}
		return NewUnary(op, k)
	}
}

func (p *Unary) Kind() string                      { return string(p.op) }
func (p *Unary) Inputs() []engine.PortSpec         { return p.ins }
func (p *Unary) Outputs() []engine.PortSpec        { return p.outs }
func (p *Unary) CheckParameters(*engine.Env) error { return nil }

func (p *Unary) UpdateData(cx *engine.Cycle) error {
	a, ok := cx.Input(0)
	if !ok {
		return nil
	}
	v, err := ir.ApplyUnary(p.op, a)
	if err != nil {
		return cx.Fault("%v", err)
	}
	cx.Output(0, v)
	return nil
}
