package value

import (
	"sync"

	"github.com/roach88/rcore/internal/ir"
)

// WatchFunc receives the recomputed approximate value of a watched node.
type WatchFunc func(v ir.Value, ok bool)

// Watch calls fn whenever a leaf n depends on changes and the approximate
// value of n changes as a result. Calls are serialized. The returned cancel
// function detaches from every leaf.
func Watch(n *Node, fn WatchFunc) (cancel func()) {
	var (
		mu      sync.Mutex
		last    ir.Value
		lastOK  bool
		cancels []func()
	)
	last, lastOK = n.ApproximateValue()

	recompute := func(ir.Value) {
		mu.Lock()
		defer mu.Unlock()
		v, ok := n.ApproximateValue()
		if ok == lastOK && ir.Equal(v, last) {
			return
		}
		last, lastOK = v, ok
		fn(v, ok)
	}

	for _, l := range n.Leaves() {
		cancels = append(cancels, l.leaf.subscribe(recompute))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
