package value

import (
	"math"

	"github.com/roach88/rcore/internal/ir"
)

// Mapping maps nodes to their replacements for Substitute.
type Mapping map[*Node]*Node

// Substitute rebuilds n with every node in m replaced by its mapping.
// Replacements must have the same type as the node they replace. Operand-less
// nodes not in m return themselves; nodes whose operands are unchanged are
// returned as is. Rebuilt nodes go back through their factory, so folding and
// interning apply to the result.
//
// Lift nodes cannot be rebuilt: substituting below one fails with
// ErrCodeUnsupported.
func (n *Node) Substitute(m Mapping) (*Node, error) {
	for from, to := range m {
		if from == nil || to == nil {
			return nil, invalidArg("Substitute", "mapping has a missing node")
		}
		if from.graph != n.graph || to.graph != n.graph {
			return nil, invalidArg("Substitute", "mapping crosses graphs")
		}
		if !from.typ.Equal(to.typ) {
			return nil, invalidArg("Substitute", "%s mapped to %s changes type %s to %s", from, to, from.typ, to.typ)
		}
	}
	return n.substitute(m, make(map[*Node]*Node))
}

func (n *Node) substitute(m Mapping, memo map[*Node]*Node) (*Node, error) {
	if r, ok := m[n]; ok {
		return r, nil
	}
	if len(n.operands) == 0 {
		return n, nil
	}
	if r, ok := memo[n]; ok {
		return r, nil
	}

	ops := make([]*Node, len(n.operands))
	changed := false
	for i, o := range n.operands {
		r, err := o.substitute(m, memo)
		if err != nil {
			return nil, err
		}
		ops[i] = r
		if r != o {
			changed = true
		}
	}

	result := n
	if changed {
		if n.rebuild == nil {
			return nil, &Error{Code: ErrCodeUnsupported, Op: "Substitute", Message: n.op + " node cannot be rewritten"}
		}
		r, err := n.rebuild(ops)
		if err != nil {
			return nil, err
		}
		result = r
	}
	memo[n] = result
	return result, nil
}

// Past returns the value of x as it was age seconds ago. The engine serves
// it from a history buffer; the host has no approximate value for it.
//
// Past of a constant is the constant, Past(x, 0) is x, and nested Past nodes
// collapse by adding their ages.
func (g *Graph) Past(x *Node, age float64) (*Node, error) {
	if err := g.checkOperands(OpPast, x); err != nil {
		return nil, err
	}
	if age < 0 || math.IsNaN(age) || math.IsInf(age, 0) {
		return nil, invalidArg(OpPast, "age must be finite and non-negative, got %g", age)
	}
	if x.IsConstant() || age == 0 {
		return x, nil
	}
	if x.op == OpPast {
		inner := x.attrs["age"].(ir.Double)
		return g.Past(x.operands[0], float64(inner)+age)
	}
	return g.intern(&Node{
		op:       OpPast,
		typ:      x.typ,
		operands: []*Node{x},
		attrs:    map[string]any{"age": ir.Double(age)},
		rebuild: func(ops []*Node) (*Node, error) {
			return g.Past(ops[0], age)
		},
	})
}

// Age returns the age of a Past node.
func (n *Node) Age() (float64, bool) {
	if n.op != OpPast {
		return 0, false
	}
	return float64(n.attrs["age"].(ir.Double)), true
}

// AsOf returns n evaluated age seconds ago: every time-varying leaf l of n is
// replaced by Past(l, age).
func (g *Graph) AsOf(n *Node, age float64) (*Node, error) {
	if err := g.checkOperands("AsOf", n); err != nil {
		return nil, err
	}
	leaves := n.Leaves()
	m := make(Mapping, len(leaves))
	for _, l := range leaves {
		p, err := g.Past(l, age)
		if err != nil {
			return nil, err
		}
		m[l] = p
	}
	return n.Substitute(m)
}

// HostFunc computes a Lift node's value from its operand values.
type HostFunc func(args []ir.Value) (ir.Value, error)

// Lift wraps a host-side function as a node of type t. The function must be
// pure; it runs during approximate and runtime evaluation on the host.
// Lift nodes fold when every operand is constant and cannot be substituted.
func (g *Graph) Lift(name string, t Type, fn HostFunc, operands ...*Node) (*Node, error) {
	if name == "" {
		return nil, invalidArg(OpLift, "name is required")
	}
	if fn == nil {
		return nil, invalidArg(OpLift, "%s: function is required", name)
	}
	if err := g.checkOperands(OpLift, operands...); err != nil {
		return nil, err
	}

	eval := func(args []ir.Value) (ir.Value, error) {
		v, err := fn(args)
		if err != nil {
			return nil, err
		}
		cv, ok := t.coerce(v)
		if !ok {
			return nil, invalidArg(OpLift, "%s returned %s, want %s", name, ir.FormatValue(v), t)
		}
		return cv, nil
	}

	allConst := len(operands) > 0
	args := make([]ir.Value, len(operands))
	for i, o := range operands {
		if !o.IsConstant() {
			allConst = false
			break
		}
		args[i] = o.value
	}
	if allConst {
		v, err := eval(args)
		if err != nil {
			return nil, wrapInvalidArg(OpLift, err)
		}
		return g.constOf(t, v)
	}

	ops := make([]*Node, len(operands))
	copy(ops, operands)
	return g.intern(&Node{
		op:       OpLift,
		typ:      t,
		operands: ops,
		attrs:    map[string]any{"name": name, "serial": g.serial.Add(1)},
		eval:     eval,
	})
}
