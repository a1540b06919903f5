package value

import (
	"github.com/roach88/rcore/internal/ir"
)

// Const returns the constant node for v with its inferred type.
func (g *Graph) Const(v ir.Value) (*Node, error) {
	t, err := TypeOf(v)
	if err != nil {
		return nil, wrapInvalidArg("Const", err)
	}
	return g.constOf(t, v)
}

// ConstOf returns the constant node for v with an explicit type, widening
// ints to doubles where t asks for it.
func (g *Graph) ConstOf(t Type, v ir.Value) (*Node, error) {
	cv, ok := t.coerce(v)
	if !ok {
		return nil, invalidArg("ConstOf", "value %s is not a %s", ir.FormatValue(v), t)
	}
	return g.constOf(t, cv)
}

func (g *Graph) constOf(t Type, v ir.Value) (*Node, error) {
	return g.intern(&Node{
		op:    OpConst,
		typ:   t,
		attrs: map[string]any{"value": v},
		value: v,
	})
}

// Bool returns the boolean constant b.
func (g *Graph) Bool(b bool) *Node { return Must(g.constOf(Bool, ir.Bool(b))) }

// Int returns the integer constant i.
func (g *Graph) Int(i int64) *Node { return Must(g.constOf(Int, ir.Int(i))) }

// Double returns the double constant f.
func (g *Graph) Double(f float64) *Node { return Must(g.constOf(Double, ir.Double(f))) }

// Binary builds the strict binary operation op over a and b.
//
// Operands must have the same type. Arithmetic and ordering accept Int or
// Double; And/Or accept Bool; Eq/Ne accept any type. Constant operands fold,
// and algebraic identities (x+0, x*1, x*0, x/1, x-0, b&&true, ...) return an
// existing node instead of building a new one.
func (g *Graph) Binary(op ir.BinaryOp, a, b *Node) (*Node, error) {
	name := string(op)
	if err := g.checkOperands(name, a, b); err != nil {
		return nil, err
	}
	if !a.typ.Equal(b.typ) {
		return nil, invalidArg(name, "operand types differ (%s, %s)", a.typ, b.typ)
	}
	if a.typ.kind == ir.KindArray && op != ir.OpEq && op != ir.OpNe {
		return nil, invalidArg(name, "operands of type %s are not supported", a.typ)
	}
	rk, err := ir.BinaryResultKind(op, a.typ.kind, b.typ.kind)
	if err != nil {
		return nil, wrapInvalidArg(name, err)
	}
	resType := a.typ
	if rk == ir.KindBool {
		resType = Bool
	}

	if a.IsConstant() && b.IsConstant() {
		v, err := ir.ApplyBinary(op, a.value, b.value)
		if err != nil {
			return nil, wrapInvalidArg(name, err)
		}
		return g.constOf(resType, v)
	}
	if n := g.simplifyBinary(op, a, b); n != nil {
		return n, nil
	}

	return g.intern(&Node{
		op:       name,
		typ:      resType,
		operands: []*Node{a, b},
		eval: func(args []ir.Value) (ir.Value, error) {
			return ir.ApplyBinary(op, args[0], args[1])
		},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.Binary(op, ops[0], ops[1])
		},
	})
}

// simplifyBinary applies the identity rules for a non-constant pair.
// It returns nil when no rule matches.
func (g *Graph) simplifyBinary(op ir.BinaryOp, a, b *Node) *Node {
	same := a == b
	exact := same && (a.typ.kind == ir.KindInt || a.typ.kind == ir.KindBool)
	switch op {
	case ir.OpAdd:
		if isNumber(b, 0) {
			return a
		}
		if isNumber(a, 0) {
			return b
		}
	case ir.OpSub:
		if isNumber(b, 0) {
			return a
		}
		if exact {
			return g.Int(0)
		}
	case ir.OpMul:
		switch {
		case isNumber(b, 1):
			return a
		case isNumber(a, 1):
			return b
		case isNumber(a, 0):
			return a
		case isNumber(b, 0):
			return b
		}
	case ir.OpDiv:
		if isNumber(b, 1) {
			return a
		}
	case ir.OpMin, ir.OpMax:
		if same {
			return a
		}
	case ir.OpEq, ir.OpLe, ir.OpGe:
		if exact {
			return g.Bool(true)
		}
	case ir.OpNe, ir.OpLt, ir.OpGt:
		if exact {
			return g.Bool(false)
		}
	case ir.OpAnd:
		switch {
		case same, isBool(b, true), isBool(a, false):
			return a
		case isBool(a, true), isBool(b, false):
			return b
		}
	case ir.OpOr:
		switch {
		case same, isBool(b, false), isBool(a, true):
			return a
		case isBool(a, false), isBool(b, true):
			return b
		}
	}
	return nil
}

func isNumber(n *Node, want float64) bool {
	switch v := n.value.(type) {
	case ir.Int:
		return n.IsConstant() && float64(v) == want
	case ir.Double:
		return n.IsConstant() && float64(v) == want
	}
	return false
}

func isBool(n *Node, want bool) bool {
	v, ok := n.value.(ir.Bool)
	return ok && n.IsConstant() && bool(v) == want
}

// Unary builds the strict unary operation op over a.
func (g *Graph) Unary(op ir.UnaryOp, a *Node) (*Node, error) {
	name := string(op)
	if err := g.checkOperands(name, a); err != nil {
		return nil, err
	}
	if a.typ.kind == ir.KindArray {
		return nil, invalidArg(name, "operand of type %s is not supported", a.typ)
	}
	rk, err := ir.UnaryResultKind(op, a.typ.kind)
	if err != nil {
		return nil, wrapInvalidArg(name, err)
	}
	resType := Type{kind: rk}

	if a.IsConstant() {
		v, err := ir.ApplyUnary(op, a.value)
		if err != nil {
			return nil, wrapInvalidArg(name, err)
		}
		return g.constOf(resType, v)
	}
	switch {
	case op == ir.OpToDouble && a.typ.kind == ir.KindDouble:
		return a, nil
	case (op == ir.OpNot || op == ir.OpNeg) && a.op == name:
		return a.operands[0], nil
	case op == ir.OpAbs && a.op == name:
		return a, nil
	}

	return g.intern(&Node{
		op:       name,
		typ:      resType,
		operands: []*Node{a},
		eval: func(args []ir.Value) (ir.Value, error) {
			return ir.ApplyUnary(op, args[0])
		},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.Unary(op, ops[0])
		},
	})
}

// Add returns a + b.
func (g *Graph) Add(a, b *Node) (*Node, error) { return g.Binary(ir.OpAdd, a, b) }

// Sub returns a - b.
func (g *Graph) Sub(a, b *Node) (*Node, error) { return g.Binary(ir.OpSub, a, b) }

// Mul returns a * b.
func (g *Graph) Mul(a, b *Node) (*Node, error) { return g.Binary(ir.OpMul, a, b) }

// Div returns a / b. Dividing by a constant integer zero is rejected here;
// a time-varying zero divisor faults the net at runtime.
func (g *Graph) Div(a, b *Node) (*Node, error) { return g.Binary(ir.OpDiv, a, b) }

// Min returns the smaller of a and b.
func (g *Graph) Min(a, b *Node) (*Node, error) { return g.Binary(ir.OpMin, a, b) }

// Max returns the larger of a and b.
func (g *Graph) Max(a, b *Node) (*Node, error) { return g.Binary(ir.OpMax, a, b) }

// Less returns a < b.
func (g *Graph) Less(a, b *Node) (*Node, error) { return g.Binary(ir.OpLt, a, b) }

// LessEq returns a <= b.
func (g *Graph) LessEq(a, b *Node) (*Node, error) { return g.Binary(ir.OpLe, a, b) }

// Greater returns a > b.
func (g *Graph) Greater(a, b *Node) (*Node, error) { return g.Binary(ir.OpGt, a, b) }

// GreaterEq returns a >= b.
func (g *Graph) GreaterEq(a, b *Node) (*Node, error) { return g.Binary(ir.OpGe, a, b) }

// Equal returns a == b as a bool node. Nodes themselves compare with Node.Equal.
func (g *Graph) Equal(a, b *Node) (*Node, error) { return g.Binary(ir.OpEq, a, b) }

// NotEqual returns a != b.
func (g *Graph) NotEqual(a, b *Node) (*Node, error) { return g.Binary(ir.OpNe, a, b) }

// And returns the logical conjunction of two bool nodes.
func (g *Graph) And(a, b *Node) (*Node, error) { return g.Binary(ir.OpAnd, a, b) }

// Or returns the logical disjunction of two bool nodes.
func (g *Graph) Or(a, b *Node) (*Node, error) { return g.Binary(ir.OpOr, a, b) }

// Not negates a bool node.
func (g *Graph) Not(a *Node) (*Node, error) { return g.Unary(ir.OpNot, a) }

// Neg returns -a.
func (g *Graph) Neg(a *Node) (*Node, error) { return g.Unary(ir.OpNeg, a) }

// Abs returns |a|.
func (g *Graph) Abs(a *Node) (*Node, error) { return g.Unary(ir.OpAbs, a) }

// ToDouble widens an integer node to double. Double nodes are returned as is.
func (g *Graph) ToDouble(a *Node) (*Node, error) { return g.Unary(ir.OpToDouble, a) }

// Select returns a when cond is true and b otherwise. a and b must have the
// same type.
func (g *Graph) Select(cond, a, b *Node) (*Node, error) {
	if err := g.checkOperands(OpSelect, cond, a, b); err != nil {
		return nil, err
	}
	if !cond.typ.Equal(Bool) {
		return nil, invalidArg(OpSelect, "condition must be bool, got %s", cond.typ)
	}
	if !a.typ.Equal(b.typ) {
		return nil, invalidArg(OpSelect, "branch types differ (%s, %s)", a.typ, b.typ)
	}
	if cond.IsConstant() {
		if bool(cond.value.(ir.Bool)) {
			return a, nil
		}
		return b, nil
	}
	if a == b {
		return a, nil
	}
	return g.intern(&Node{
		op:       OpSelect,
		typ:      a.typ,
		operands: []*Node{cond, a, b},
		eval: func(args []ir.Value) (ir.Value, error) {
			if bool(args[0].(ir.Bool)) {
				return args[1], nil
			}
			return args[2], nil
		},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.Select(ops[0], ops[1], ops[2])
		},
	})
}

// Node shortcuts mirror the Graph factories with the receiver as the first
// operand, so expressions read left to right: x.Add(y).

// Add returns n + o.
func (n *Node) Add(o *Node) (*Node, error) { return n.graph.Add(n, o) }

// Sub returns n - o.
func (n *Node) Sub(o *Node) (*Node, error) { return n.graph.Sub(n, o) }

// Mul returns n * o.
func (n *Node) Mul(o *Node) (*Node, error) { return n.graph.Mul(n, o) }

// Div returns n / o.
func (n *Node) Div(o *Node) (*Node, error) { return n.graph.Div(n, o) }

// Neg returns -n.
func (n *Node) Neg() (*Node, error) { return n.graph.Neg(n) }

// Not negates a bool node.
func (n *Node) Not() (*Node, error) { return n.graph.Not(n) }

// Less returns n < o.
func (n *Node) Less(o *Node) (*Node, error) { return n.graph.Less(n, o) }

// Greater returns n > o.
func (n *Node) Greater(o *Node) (*Node, error) { return n.graph.Greater(n, o) }
