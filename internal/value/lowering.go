package value

import "github.com/roach88/rcore/internal/ir"

// NetTarget is the net under construction that a Lowerer emits into.
type NetTarget interface {
	// AddNode appends a primitive and returns its unique name.
	AddNode(spec ir.NodeSpec) (string, error)

	// Connect wires an output port to an input port.
	Connect(from, to ir.PortRef) error

	// Period returns the cycle period in seconds, needed to size history.
	Period() float64
}

// Lowerer maps a value node onto primitives of a net, returning the output
// port that carries the node's value each cycle. Implementations should lower
// each node once per target and reuse the port for shared subexpressions.
type Lowerer interface {
	Lower(n *Node, target NetTarget) (ir.PortRef, error)
}
