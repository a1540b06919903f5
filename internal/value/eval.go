package value

import (
	"context"
	"fmt"

	"github.com/roach88/rcore/internal/ir"
)

// ApproximateValue returns the best value computable from leaf caches
// without a runtime round-trip. It reports false when any leaf it depends on
// has no cached value, when n depends on a Past node, or when evaluation
// fails (for example integer division by a zero cached value).
//
// Lock-free: leaf caches are read atomically.
func (n *Node) ApproximateValue() (ir.Value, bool) {
	return n.approx(make(map[*Node]approxResult))
}

type approxResult struct {
	v  ir.Value
	ok bool
}

func (n *Node) approx(memo map[*Node]approxResult) (ir.Value, bool) {
	if r, ok := memo[n]; ok {
		return r.v, r.ok
	}
	var r approxResult
	switch {
	case n.op == OpConst:
		r = approxResult{v: n.value, ok: true}
	case n.leaf != nil:
		r.v, r.ok = n.leaf.load()
	case n.eval == nil:
		// past: history lives in the engine
	default:
		args := make([]ir.Value, len(n.operands))
		r.ok = true
		for i, o := range n.operands {
			v, ok := o.approx(memo)
			if !ok {
				r.ok = false
				break
			}
			args[i] = v
		}
		if r.ok {
			v, err := n.eval(args)
			r = approxResult{v: v, ok: err == nil && v != nil}
		}
	}
	memo[n] = r
	return r.v, r.ok
}

// LeafReader supplies authoritative values for the nodes Eval cannot compute
// on the host: device leaves and Past nodes.
type LeafReader interface {
	ReadLeaf(ctx context.Context, n *Node) (ir.Value, error)
}

// LeafReaderFunc adapts a function to LeafReader.
type LeafReaderFunc func(ctx context.Context, n *Node) (ir.Value, error)

// ReadLeaf implements LeafReader.
func (f LeafReaderFunc) ReadLeaf(ctx context.Context, n *Node) (ir.Value, error) { return f(ctx, n) }

// Eval evaluates n bottom-up. Constants and writable leaves use their local
// values; device leaves and Past nodes are read through r. Each node is
// evaluated at most once.
func Eval(ctx context.Context, n *Node, r LeafReader) (ir.Value, error) {
	memo := make(map[*Node]ir.Value)
	return evalNode(ctx, n, r, memo)
}

func evalNode(ctx context.Context, n *Node, r LeafReader, memo map[*Node]ir.Value) (ir.Value, error) {
	if v, ok := memo[n]; ok {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		v   ir.Value
		err error
	)
	switch {
	case n.op == OpConst:
		v = n.value
	case n.op == OpWritable:
		v, _ = n.leaf.load()
	case n.op == OpDevice || n.op == OpPast:
		if r == nil {
			return nil, fmt.Errorf("%s: no leaf reader", n)
		}
		v, err = r.ReadLeaf(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
	default:
		args := make([]ir.Value, len(n.operands))
		for i, o := range n.operands {
			args[i], err = evalNode(ctx, o, r, memo)
			if err != nil {
				return nil, err
			}
		}
		v, err = n.eval(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
	}
	if v == nil {
		return nil, fmt.Errorf("%s: no value", n)
	}
	memo[n] = v
	return v, nil
}
