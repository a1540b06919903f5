package value

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/rcore/internal/ir"
)

// Handle is the arena index of a node within its Graph. Handles are dense,
// assigned in creation order, and never reused.
type Handle uint32

// Graph is the arena that owns and interns value nodes.
//
// Thread-safety: all methods are safe for concurrent use. Interning takes a
// write lock only when a node is new; reads of existing nodes never lock.
//
// INVARIANTS:
//   - nodes[h].handle == h
//   - index[n.digest] == n for every node n
//   - a digest maps to exactly one node for the graph's lifetime
type Graph struct {
	mu     sync.RWMutex
	nodes  []*Node
	index  map[string]*Node
	serial atomic.Uint64

	runtime atomic.Pointer[runtimeBox]
}

type runtimeBox struct {
	rt Runtime
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithRuntime attaches the runtime used by CurrentValue.
func WithRuntime(rt Runtime) GraphOption {
	return func(g *Graph) {
		g.SetRuntime(rt)
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes: make([]*Node, 0, 64),
		index: make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRuntime attaches (or, with nil, detaches) the runtime used by
// CurrentValue. Safe to call while other goroutines read values.
func (g *Graph) SetRuntime(rt Runtime) {
	if rt == nil {
		g.runtime.Store(nil)
		return
	}
	g.runtime.Store(&runtimeBox{rt: rt})
}

// Runtime returns the attached runtime, or nil.
func (g *Graph) Runtime() Runtime {
	box := g.runtime.Load()
	if box == nil {
		return nil
	}
	return box.rt
}

// Len returns the number of interned nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Lookup returns the node with handle h.
func (g *Graph) Lookup(h Handle) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(h) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[h], true
}

// intern returns the existing node structurally equal to proto, or assigns
// proto a handle and stores it. proto must have op, typ, operands and attrs
// set; the digest is computed here.
func (g *Graph) intern(proto *Node) (*Node, error) {
	opDigests := make([]string, len(proto.operands))
	for i, o := range proto.operands {
		opDigests[i] = o.digest
	}
	digest, err := ir.NodeDigest(proto.op, proto.typ.String(), opDigests, proto.attrs)
	if err != nil {
		return nil, wrapInvalidArg(proto.op, err)
	}

	g.mu.RLock()
	existing, ok := g.index[digest]
	g.mu.RUnlock()
	if ok {
		return existing, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check: another goroutine may have interned it meanwhile
	if existing, ok := g.index[digest]; ok {
		return existing, nil
	}

	proto.graph = g
	proto.digest = digest
	proto.handle = Handle(len(g.nodes))
	g.nodes = append(g.nodes, proto)
	g.index[digest] = proto
	return proto, nil
}

// checkOperands rejects missing operands and operands from another graph.
func (g *Graph) checkOperands(op string, operands ...*Node) error {
	for i, o := range operands {
		if o == nil {
			return invalidArg(op, "operand %d is missing", i)
		}
		if o.graph != g {
			return invalidArg(op, "operand %d belongs to another graph", i)
		}
	}
	return nil
}
