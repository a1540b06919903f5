package prim

import (
	"fmt"
	"strconv"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

var arrayOut = outPort(ir.KindArray)

// MakeArray builds an array from its inputs e0..e(n-1). Strict: any missing
// element yields no value.
//
// Params: size (int, required, at least 1). Type, when set, is the element
// kind of every input.
type MakeArray struct {
	ins []engine.PortSpec
}

// NewMakeArray returns an array constructor with n inputs of kind k.
func NewMakeArray(n int, k ir.Kind) *MakeArray {
	ins := make([]engine.PortSpec, n)
	for i := range ins {
		ins[i] = engine.PortSpec{Name: "e" + strconv.Itoa(i), Kind: k}
	}
	return &MakeArray{ins: ins}
}

func newMakeArray(spec ir.NodeSpec) (engine.Primitive, error) {
	n, err := paramsOf(spec).int("size", 0)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > 1<<16 {
		return nil, fmt.Errorf("parameter %q must be in [1, 65536], got %d", "size", n)
	}
	return NewMakeArray(int(n), spec.Type), nil
}

func (p *MakeArray) Kind() string                      { return KindArray }
func (p *MakeArray) Inputs() []engine.PortSpec         { return p.ins }
func (p *MakeArray) Outputs() []engine.PortSpec        { return arrayOut }
func (p *MakeArray) CheckParameters(*engine.Env) error { return nil }
func (p *MakeArray) BindKind(k ir.Kind)                { bindGeneric(k, p.ins) }

func (p *MakeArray) UpdateData(cx *engine.Cycle) error {
	arr := make(ir.Array, len(p.ins))
	for i := range arr {
		v, ok := cx.Input(i)
		if !ok {
			return nil
		}
		arr[i] = v
	}
	cx.Output(0, arr)
	return nil
}

// Index outputs element i of an array. An index out of range, or an element
// not of the declared Type, yields no value.
type Index struct {
	outs []engine.PortSpec
}

func newIndex(spec ir.NodeSpec) (engine.Primitive, error) {
	return &Index{outs: outPort(spec.Type)}, nil
}

func (p *Index) Kind() string { return KindIndex }

func (p *Index) Inputs() []engine.PortSpec {
	return []engine.PortSpec{{Name: "arr", Kind: ir.KindArray}, {Name: "i", Kind: ir.KindInt}}
}

func (p *Index) Outputs() []engine.PortSpec        { return p.outs }
func (p *Index) CheckParameters(*engine.Env) error { return nil }
func (p *Index) BindKind(k ir.Kind)                { bindGeneric(k, p.outs) }

func (p *Index) UpdateData(cx *engine.Cycle) error {
	arr, i, ok := arrayAndIndex(cx)
	if !ok {
		return nil
	}
	v := arr[i]
	if k := p.outs[0].Kind; k != ir.KindInvalid && v.Kind() != k {
		return nil
	}
	cx.Output(0, v)
	return nil
}

// SetIndex outputs a copy of an array with element i replaced. An index out
// of range yields no value.
type SetIndex struct {
	ins []engine.PortSpec
}

func newSetIndex(spec ir.NodeSpec) (engine.Primitive, error) {
	return &SetIndex{ins: []engine.PortSpec{
		{Name: "arr", Kind: ir.KindArray},
		{Name: "i", Kind: ir.KindInt},
		{Name: "v", Kind: spec.Type},
	}}, nil
}

func (p *SetIndex) Kind() string                      { return KindSetIndex }
func (p *SetIndex) Inputs() []engine.PortSpec         { return p.ins }
func (p *SetIndex) Outputs() []engine.PortSpec        { return arrayOut }
func (p *SetIndex) CheckParameters(*engine.Env) error { return nil }
func (p *SetIndex) BindKind(k ir.Kind)                { bindGeneric(k, p.ins) }

func (p *SetIndex) UpdateData(cx *engine.Cycle) error {
	arr, i, ok := arrayAndIndex(cx)
	if !ok {
		return nil
	}
	v, ok := cx.Input(2)
	if !ok {
		return nil
	}
	out := make(ir.Array, len(arr))
	copy(out, arr)
	out[i] = v
	cx.Output(0, out)
	return nil
}

func arrayAndIndex(cx *engine.Cycle) (ir.Array, int, bool) {
	av, ok := cx.Input(0)
	if !ok {
		return nil, 0, false
	}
	iv, ok := cx.Input(1)
	if !ok {
		return nil, 0, false
	}
	arr, i := av.(ir.Array), int64(iv.(ir.Int))
	if i < 0 || i >= int64(len(arr)) {
		return nil, 0, false
	}
	return arr, int(i), true
}

// Slice outputs elements [from, to) of an array. A range that does not fit
// the array yields no value.
//
// Params: from, to (int, required, 0 <= from <= to).
type Slice struct {
	from, to int64
}

func newSlice(spec ir.NodeSpec) (engine.Primitive, error) {
	ps := paramsOf(spec)
	from, err := ps.int("from", -1)
	if err != nil {
		return nil, err
	}
	to, err := ps.int("to", -1)
	if err != nil {
		return nil, err
	}
	return &Slice{from: from, to: to}, nil
}

func (p *Slice) Kind() string { return KindSlice }

func (p *Slice) Inputs() []engine.PortSpec {
	return []engine.PortSpec{{Name: "arr", Kind: ir.KindArray}}
}

func (p *Slice) Outputs() []engine.PortSpec { return arrayOut }

func (p *Slice) CheckParameters(env *engine.Env) error {
	if p.from < 0 || p.to < p.from {
		return env.Invalid("slice bounds [%d, %d) invalid", p.from, p.to)
	}
	return nil
}

func (p *Slice) UpdateData(cx *engine.Cycle) error {
	av, ok := cx.Input(0)
	if !ok {
		return nil
	}
	arr := av.(ir.Array)
	if p.to > int64(len(arr)) {
		return nil
	}
	out := make(ir.Array, p.to-p.from)
	copy(out, arr[p.from:p.to])
	cx.Output(0, out)
	return nil
}
