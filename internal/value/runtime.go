package value

import (
	"context"

	"github.com/roach88/rcore/internal/ir"
)

// Runtime answers authoritative reads. The engine side implements it by
// lowering the node onto a net, or, for leaves it already serves, by
// reading the corresponding netcomm channel.
//
// Read may block and must honour ctx.
type Runtime interface {
	Read(ctx context.Context, n *Node) (ir.Value, error)
}

// EvalRuntime is a Runtime that evaluates composites on the host and reads
// only leaves through Leaves.
type EvalRuntime struct {
	Leaves LeafReader
}

// Read implements Runtime.
func (r EvalRuntime) Read(ctx context.Context, n *Node) (ir.Value, error) {
	return Eval(ctx, n, r.Leaves)
}

type readResult struct {
	v   ir.Value
	err error
}

// CurrentValue returns the authoritative value through the graph's Runtime.
//
// It fails with ErrCodeUnavailable when n is not available or no runtime is
// attached, and with ErrCodeReadFailed when the runtime fails, returns a
// value of the wrong type, or ctx ends first. A result arriving after ctx
// ends is discarded.
func (n *Node) CurrentValue(ctx context.Context) (ir.Value, error) {
	if !n.IsAvailable() {
		return nil, &Error{Code: ErrCodeUnavailable, Op: "CurrentValue", Message: n.String() + " is not available"}
	}
	if n.IsConstant() {
		return n.value, nil
	}
	rt := n.graph.Runtime()
	if rt == nil {
		return nil, &Error{Code: ErrCodeUnavailable, Op: "CurrentValue", Message: "no active runtime"}
	}

	// Buffered so a late reader never blocks after we stop waiting
	done := make(chan readResult, 1)
	go func() {
		v, err := rt.Read(ctx, n)
		done <- readResult{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &Error{Code: ErrCodeReadFailed, Op: "CurrentValue", Message: n.String(), Err: ctx.Err()}
	case res := <-done:
		if res.err != nil {
			return nil, &Error{Code: ErrCodeReadFailed, Op: "CurrentValue", Message: n.String(), Err: res.err}
		}
		v, ok := n.typ.coerce(res.v)
		if !ok {
			return nil, &Error{
				Code:    ErrCodeReadFailed,
				Op:      "CurrentValue",
				Message: "runtime returned " + ir.FormatValue(res.v) + " for " + n.typ.String(),
			}
		}
		return v, nil
	}
}
