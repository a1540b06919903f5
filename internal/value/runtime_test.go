package value

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
)

type mapReader map[string]ir.Value

func (m mapReader) ReadLeaf(_ context.Context, n *Node) (ir.Value, error) {
	name, _ := n.Attr("name")
	v, ok := m[name.(string)]
	if !ok {
		return nil, errors.New("not connected")
	}
	return v, nil
}

func TestCurrentValue_EvaluatesThroughRuntime(t *testing.T) {
	g := NewGraph(WithRuntime(EvalRuntime{Leaves: mapReader{"x": ir.Int(4)}}))
	x := device(g, "x", Int)
	w := Must(g.Writable("w", Int, ir.Int(3)))
	sum := Must(g.Add(x, w.Node))

	v, err := sum.CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Int(7), v)
}

func TestCurrentValue_ConstantNeedsNoRuntime(t *testing.T) {
	g := NewGraph()
	v, err := g.Int(9).CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Int(9), v)
}

func TestCurrentValue_Unavailable(t *testing.T) {
	g := NewGraph()
	w := Must(g.Writable("w", Int, ir.Int(0)))

	_, err := w.CurrentValue(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err), "no runtime attached")

	g.SetRuntime(EvalRuntime{})
	absent := Must(g.Device("gone", Int, NewPresenceSwitch(PresenceAbsent)))
	_, err = absent.CurrentValue(context.Background())
	assert.True(t, IsUnavailable(err))
}

func TestCurrentValue_ReadFailed(t *testing.T) {
	g := NewGraph(WithRuntime(EvalRuntime{Leaves: mapReader{}}))
	x := device(g, "x", Int)

	_, err := x.CurrentValue(context.Background())
	require.Error(t, err)
	assert.True(t, IsReadFailed(err))
}

type blockingRuntime struct {
	release chan struct{}
}

func (r blockingRuntime) Read(ctx context.Context, _ *Node) (ir.Value, error) {
	<-r.release
	return ir.Int(1), nil
}

func TestCurrentValue_DeadlineDiscardsLateResult(t *testing.T) {
	rt := blockingRuntime{release: make(chan struct{})}
	defer close(rt.release)

	g := NewGraph(WithRuntime(rt))
	x := device(g, "x", Int)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := x.CurrentValue(ctx)
	require.Error(t, err)
	assert.True(t, IsReadFailed(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type wrongTypeRuntime struct{}

func (wrongTypeRuntime) Read(context.Context, *Node) (ir.Value, error) { return ir.Bool(true), nil }

func TestCurrentValue_RejectsWrongType(t *testing.T) {
	g := NewGraph(WithRuntime(wrongTypeRuntime{}))
	x := device(g, "x", Int)

	_, err := x.CurrentValue(context.Background())
	assert.True(t, IsReadFailed(err))
}

func TestEval_PastReadsThroughLeafReader(t *testing.T) {
	g := NewGraph()
	x := device(g, "x", Double)
	p := Must(g.Past(x, 0.1))
	delta := Must(g.Sub(x, p))

	reader := LeafReaderFunc(func(_ context.Context, n *Node) (ir.Value, error) {
		if n.Op() == OpPast {
			return ir.Double(1), nil
		}
		return ir.Double(3), nil
	})
	v, err := Eval(context.Background(), delta, reader)
	require.NoError(t, err)
	assert.Equal(t, ir.Double(2), v)
}
