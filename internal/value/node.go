package value

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rcore/internal/ir"
)

// Node kinds that are not an ir.BinaryOp or ir.UnaryOp.
const (
	OpConst     = "const"
	OpWritable  = "writable"
	OpDevice    = "device"
	OpPast      = "past"
	OpLift      = "lift"
	OpSelect    = "select"
	OpArray     = "array"
	OpIndex     = "index"
	OpSetIndex  = "setindex"
	OpSlice     = "slice"
	OpComposite = "composite"
	OpField     = "field"
)

type evalFunc func(args []ir.Value) (ir.Value, error)

type rebuildFunc func(operands []*Node) (*Node, error)

// Node is an immutable, interned value-graph node.
//
// Nodes are created only through Graph factories. Two nodes are structurally
// equal iff they are the same pointer (equivalently, share a Handle).
type Node struct {
	graph    *Graph
	handle   Handle
	digest   string
	op       string
	typ      Type
	operands []*Node
	attrs    map[string]any

	value   ir.Value    // constants only
	leaf    *leaf       // writable and device leaves only
	eval    evalFunc    // computation nodes; nil for const, leaves and past
	rebuild rebuildFunc // nil when the node cannot be rewritten
}

// Graph returns the owning graph.
func (n *Node) Graph() *Graph { return n.graph }

// Handle returns the node's arena index.
func (n *Node) Handle() Handle { return n.handle }

// Digest returns the canonical structural digest.
func (n *Node) Digest() string { return n.digest }

// Op returns the node kind, e.g. "add" or "const".
func (n *Node) Op() string { return n.op }

// Type returns the declared type.
func (n *Node) Type() Type { return n.typ }

// NumOperands returns the operand count.
func (n *Node) NumOperands() int { return len(n.operands) }

// Operand returns the i-th operand.
func (n *Node) Operand(i int) *Node { return n.operands[i] }

// Operands returns a copy of the operand list.
func (n *Node) Operands() []*Node {
	out := make([]*Node, len(n.operands))
	copy(out, n.operands)
	return out
}

// Attr returns an extra identity attribute (e.g. "index", "age", "name").
func (n *Node) Attr(key string) (any, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// IsConstant reports whether the node is provably constant.
func (n *Node) IsConstant() bool { return n.op == OpConst }

// ConstantValue returns the value of a constant node.
func (n *Node) ConstantValue() (ir.Value, bool) {
	if n.op != OpConst {
		return nil, false
	}
	return n.value, true
}

// Equal reports structural equality. Interning makes it pointer identity.
func (n *Node) Equal(o *Node) bool { return n == o }

// String renders a short debug form such as "add#3(#1,#2)".
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s#%d", n.op, n.handle)
	switch {
	case n.op == OpConst:
		fmt.Fprintf(&sb, "(%s)", ir.FormatValue(n.value))
	case n.leaf != nil:
		fmt.Fprintf(&sb, "(%s)", n.leaf.name)
	case len(n.operands) > 0:
		ids := make([]string, len(n.operands))
		for i, o := range n.operands {
			ids[i] = fmt.Sprintf("#%d", o.handle)
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(ids, ","))
	}
	return sb.String()
}

// IsAvailable reports whether every operand is available. Device leaves
// delegate to their Presence collaborator; constants and writable leaves are
// always available.
func (n *Node) IsAvailable() bool {
	return n.available(make(map[*Node]bool))
}

func (n *Node) available(memo map[*Node]bool) bool {
	if r, ok := memo[n]; ok {
		return r
	}
	var r bool
	switch {
	case n.leaf != nil:
		r = n.leaf.presence == nil || n.leaf.presence.State() == PresencePresent
	default:
		r = true
		for _, o := range n.operands {
			if !o.available(memo) {
				r = false
				break
			}
		}
	}
	memo[n] = r
	return r
}

// Leaves returns the time-varying leaves (writable and device) reachable
// from n, ordered by handle.
func (n *Node) Leaves() []*Node {
	seen := make(map[*Node]bool)
	var out []*Node
	var walk func(*Node)
	walk = func(m *Node) {
		if seen[m] {
			return
		}
		seen[m] = true
		if m.leaf != nil {
			out = append(out, m)
			return
		}
		for _, o := range m.operands {
			walk(o)
		}
	}
	walk(n)
	slices.SortFunc(out, func(a, b *Node) int { return cmp.Compare(a.handle, b.handle) })
	return out
}
