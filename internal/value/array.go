package value

import (
	"github.com/roach88/rcore/internal/ir"
)

// MakeArray builds a fixed-length array from element nodes of one type.
// Use Const for an empty array.
func (g *Graph) MakeArray(elems ...*Node) (*Node, error) {
	if len(elems) == 0 {
		return nil, invalidArg(OpArray, "no elements")
	}
	if err := g.checkOperands(OpArray, elems...); err != nil {
		return nil, err
	}
	et := elems[0].typ
	for i, e := range elems[1:] {
		if !e.typ.Equal(et) {
			return nil, invalidArg(OpArray, "element %d has type %s, want %s", i+1, e.typ, et)
		}
	}
	return g.aggregate(OpArray, ArrayOf(et, len(elems)), elems)
}

// MakeComposite builds a composite from heterogeneous field nodes.
func (g *Graph) MakeComposite(fields ...*Node) (*Node, error) {
	if len(fields) == 0 {
		return nil, invalidArg(OpComposite, "no fields")
	}
	if err := g.checkOperands(OpComposite, fields...); err != nil {
		return nil, err
	}
	types := make([]Type, len(fields))
	for i, f := range fields {
		types[i] = f.typ
	}
	return g.aggregate(OpComposite, CompositeOf(types...), fields)
}

func (g *Graph) aggregate(op string, t Type, parts []*Node) (*Node, error) {
	allConst := true
	for _, p := range parts {
		if !p.IsConstant() {
			allConst = false
			break
		}
	}
	if allConst {
		arr := make(ir.Array, len(parts))
		for i, p := range parts {
			arr[i] = p.value
		}
		return g.constOf(t, arr)
	}
	operands := make([]*Node, len(parts))
	copy(operands, parts)
	return g.intern(&Node{
		op:       op,
		typ:      t,
		operands: operands,
		eval: func(args []ir.Value) (ir.Value, error) {
			arr := make(ir.Array, len(args))
			copy(arr, args)
			return arr, nil
		},
		rebuild: func(ops []*Node) (*Node, error) {
			if op == OpComposite {
				return g.MakeComposite(ops...)
			}
			return g.MakeArray(ops...)
		},
	})
}

// Index extracts element i of an array node. i is static and must be in
// range for the array's length.
func (g *Graph) Index(arr *Node, i int) (*Node, error) {
	if err := g.checkOperands(OpIndex, arr); err != nil {
		return nil, err
	}
	if !arr.typ.IsArray() {
		return nil, invalidArg(OpIndex, "operand must be an array, got %s", arr.typ)
	}
	return g.extract(OpIndex, OpArray, arr, i, arr.typ.Elem())
}

// Field extracts field i of a composite node.
func (g *Graph) Field(c *Node, i int) (*Node, error) {
	if err := g.checkOperands(OpField, c); err != nil {
		return nil, err
	}
	if !c.typ.IsComposite() {
		return nil, invalidArg(OpField, "operand must be a composite, got %s", c.typ)
	}
	if i < 0 || i >= c.typ.Len() {
		return nil, invalidArg(OpField, "field %d out of range [0,%d)", i, c.typ.Len())
	}
	return g.extract(OpField, OpComposite, c, i, c.typ.Field(i))
}

func (g *Graph) extract(op, ctor string, src *Node, i int, t Type) (*Node, error) {
	if i < 0 || i >= src.typ.Len() {
		return nil, invalidArg(op, "index %d out of range [0,%d)", i, src.typ.Len())
	}
	switch {
	case src.IsConstant():
		return g.constOf(t, src.value.(ir.Array)[i])
	case src.op == ctor:
		return src.operands[i], nil
	case src.op == OpSetIndex && src.attrs["index"] == i:
		return src.operands[1], nil
	}
	return g.intern(&Node{
		op:       op,
		typ:      t,
		operands: []*Node{src},
		attrs:    map[string]any{"index": i},
		eval: func(args []ir.Value) (ir.Value, error) {
			return args[0].(ir.Array)[i], nil
		},
		rebuild: func(ops []*Node) (*Node, error) {
			if op == OpField {
				return g.Field(ops[0], i)
			}
			return g.Index(ops[0], i)
		},
	})
}

// SetIndex returns a copy of arr with element i replaced by v.
func (g *Graph) SetIndex(arr *Node, i int, v *Node) (*Node, error) {
	if err := g.checkOperands(OpSetIndex, arr, v); err != nil {
		return nil, err
	}
	if !arr.typ.IsArray() {
		return nil, invalidArg(OpSetIndex, "operand must be an array, got %s", arr.typ)
	}
	if i < 0 || i >= arr.typ.Len() {
		return nil, invalidArg(OpSetIndex, "index %d out of range [0,%d)", i, arr.typ.Len())
	}
	if !v.typ.Equal(arr.typ.Elem()) {
		return nil, invalidArg(OpSetIndex, "element type %s, want %s", v.typ, arr.typ.Elem())
	}
	if arr.IsConstant() && v.IsConstant() {
		out := make(ir.Array, arr.typ.Len())
		copy(out, arr.value.(ir.Array))
		out[i] = v.value
		return g.constOf(arr.typ, out)
	}
	return g.intern(&Node{
		op:       OpSetIndex,
		typ:      arr.typ,
		operands: []*Node{arr, v},
		attrs:    map[string]any{"index": i},
		eval: func(args []ir.Value) (ir.Value, error) {
			src := args[0].(ir.Array)
			out := make(ir.Array, len(src))
			copy(out, src)
			out[i] = args[1]
			return out, nil
		},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.SetIndex(ops[0], i, ops[1])
		},
	})
}

// Slice returns elements [from, to) of arr.
func (g *Graph) Slice(arr *Node, from, to int) (*Node, error) {
	if err := g.checkOperands(OpSlice, arr); err != nil {
		return nil, err
	}
	if !arr.typ.IsArray() {
		return nil, invalidArg(OpSlice, "operand must be an array, got %s", arr.typ)
	}
	if from < 0 || to < from || to > arr.typ.Len() {
		return nil, invalidArg(OpSlice, "bounds [%d,%d) invalid for length %d", from, to, arr.typ.Len())
	}
	if from == 0 && to == arr.typ.Len() {
		return arr, nil
	}
	t := ArrayOf(arr.typ.Elem(), to-from)
	if arr.IsConstant() {
		out := make(ir.Array, to-from)
		copy(out, arr.value.(ir.Array)[from:to])
		return g.constOf(t, out)
	}
	return g.intern(&Node{
		op:       OpSlice,
		typ:      t,
		operands: []*Node{arr},
		attrs:    map[string]any{"from": from, "to": to},
		eval: func(args []ir.Value) (ir.Value, error) {
			out := make(ir.Array, to-from)
			copy(out, args[0].(ir.Array)[from:to])
			return out, nil
		},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.Slice(ops[0], from, to)
		},
	})
}
