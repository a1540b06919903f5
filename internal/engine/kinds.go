package engine

import (
	"fmt"

	"github.com/roach88/rcore/internal/ir"
)

// KindBinder is implemented by primitives with generic ports (Kind
// KindInvalid). Build calls BindKind with the kind inferred for them, before
// CheckParameters. Generic ports left unresolved are never bound.
type KindBinder interface {
	BindKind(k ir.Kind)
}

// inferKinds resolves generic ports from the wires. All generic ports of one
// node share a kind; a wire joins the kinds at its two ends. A node whose
// kind would have to be two different things fails with KIND_MISMATCH.
//
// Nodes are visited in insertion order so the reported wire is stable.
func inferKinds(nodes []*buildNode) error {
	parent := make([]int, len(nodes))
	kinds := make([]ir.Kind, len(nodes))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	mismatch := func(src *outRef, dst *buildNode, in int, want, have ir.Kind, node string) error {
		return &BuildError{
			Code: ErrCodeKindMismatch,
			Node: dst.name,
			Message: fmt.Sprintf("%s.%s -> %s.%s needs %s but %s already carries %s",
				src.node.name, src.node.outs[src.port].Name, dst.name, dst.ins[in].Name, want, node, have),
		}
	}

	for _, dst := range nodes {
		for in, src := range dst.sources {
			if src == nil {
				continue
			}
			sk, dk := src.node.outs[src.port].Kind, dst.ins[in].Kind
			switch {
			case sk == ir.KindInvalid && dk == ir.KindInvalid:
				a, b := find(src.node.index), find(dst.index)
				if a == b {
					continue
				}
				if kinds[a] != ir.KindInvalid && kinds[b] != ir.KindInvalid && kinds[a] != kinds[b] {
					return mismatch(src, dst, in, kinds[a], kinds[b], dst.name)
				}
				if kinds[b] == ir.KindInvalid {
					kinds[b] = kinds[a]
				}
				parent[a] = b
			case sk == ir.KindInvalid:
				r := find(src.node.index)
				if kinds[r] == ir.KindInvalid {
					kinds[r] = dk
				} else if kinds[r] != dk {
					return mismatch(src, dst, in, dk, kinds[r], src.node.name)
				}
			case dk == ir.KindInvalid:
				r := find(dst.index)
				if kinds[r] == ir.KindInvalid {
					kinds[r] = sk
				} else if kinds[r] != sk {
					return mismatch(src, dst, in, sk, kinds[r], dst.name)
				}
			}
		}
	}

	for _, n := range nodes {
		k := kinds[find(n.index)]
		if k == ir.KindInvalid || !n.generic() {
			continue
		}
		n.ins = bindPorts(n.ins, k)
		n.outs = bindPorts(n.outs, k)
		if kb, ok := n.prim.(KindBinder); ok {
			kb.BindKind(k)
		}
	}
	return nil
}

func (n *buildNode) generic() bool {
	for _, p := range n.ins {
		if p.Kind == ir.KindInvalid {
			return true
		}
	}
	for _, p := range n.outs {
		if p.Kind == ir.KindInvalid {
			return true
		}
	}
	return false
}

// bindPorts returns a copy of ports with every generic kind replaced by k.
func bindPorts(ports []PortSpec, k ir.Kind) []PortSpec {
	out := make([]PortSpec, len(ports))
	for i, p := range ports {
		if p.Kind == ir.KindInvalid {
			p.Kind = k
		}
		out[i] = p
	}
	return out
}
