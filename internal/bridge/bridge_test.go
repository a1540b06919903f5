package bridge

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
	"github.com/roach88/rcore/internal/prim"
	"github.com/roach88/rcore/internal/value"
)

const period = 0.01

// scaled = raw * 2
func gainNet(t *testing.T) *engine.Net {
	t.Helper()
	spec := ir.NetSpec{
		Name:   "gain",
		Period: period,
		Nodes: []ir.NodeSpec{
			{Name: "two", Kind: prim.KindConst, Type: ir.KindDouble, Params: map[string]ir.Value{"value": ir.Double(2)}},
			{Name: "mul", Kind: "mul", Type: ir.KindDouble},
		},
		Wires: []ir.WireSpec{
			{From: ir.PortRef{Node: "two", Port: "out"}, To: ir.PortRef{Node: "mul", Port: "b"}},
		},
		Channels: []ir.ChannelSpec{
			{Key: "raw", Direction: ir.DirectionIn, Kind: ir.KindDouble, Default: ir.Double(1), Port: ir.PortRef{Node: "mul", Port: "a"}},
			{Key: "scaled", Direction: ir.DirectionOut, Kind: ir.KindDouble, Port: ir.PortRef{Node: "mul", Port: "out"}},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	net, err := prim.Assemble(spec, nil, engine.WithLogger(logger), engine.WithIDGenerator(engine.NewFixedGenerator("bridge-net")))
	require.NoError(t, err)
	return net
}

func newBridge(t *testing.T, net *engine.Net, opts ...Option) (*Bridge, *value.Graph) {
	t.Helper()
	g := value.NewGraph()
	b := New(g, net.Bus(), net.Clock(), opts...)
	b.Attach()
	t.Cleanup(b.Close)
	return b, g
}

func TestBridge_InputReachesNet(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net)

	w := value.Must(g.Writable("raw", value.Double, ir.Double(3)))
	require.NoError(t, b.BindInput(w, "raw"))
	dev, err := b.BindOutput("scaled", value.Double, nil)
	require.NoError(t, err)

	require.NoError(t, net.Step())
	v, ok := dev.ApproximateValue()
	require.True(t, ok)
	assert.Equal(t, ir.Double(6), v)

	require.NoError(t, w.Set(ir.Double(5)))
	require.NoError(t, net.Step())
	v, _ = dev.ApproximateValue()
	assert.Equal(t, ir.Double(10), v)
}

func TestBridge_CurrentValueThroughChannels(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net)

	w := value.Must(g.Writable("raw", value.Double, ir.Double(4)))
	require.NoError(t, b.BindInput(w, "raw"))
	dev, err := b.BindOutput("scaled", value.Double, nil)
	require.NoError(t, err)
	sum := value.Must(g.Add(dev.Node, w.Node))

	_, err = sum.CurrentValue(context.Background())
	assert.True(t, value.IsUnavailable(err), "nothing published yet: %v", err)

	require.NoError(t, net.Step())
	v, err := sum.CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Double(12), v)
}

func TestBridge_PastReadsHistory(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net, WithHistory(0.04))

	w := value.Must(g.Writable("raw", value.Double, ir.Double(0)))
	require.NoError(t, b.BindInput(w, "raw"))
	dev, err := b.BindOutput("scaled", value.Double, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Set(ir.Double(float64(i))))
		require.NoError(t, net.Step())
	}

	pastOut := value.Must(g.Past(dev.Node, 0.02))
	v, err := pastOut.CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Double(4), v)

	pastIn := value.Must(g.Past(w.Node, 0.02))
	v, err = pastIn.CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Double(2), v)

	tooOld := value.Must(g.Past(dev.Node, 0.05))
	_, err = tooOld.CurrentValue(context.Background())
	assert.True(t, value.IsReadFailed(err), "got %v", err)
}

func TestBridge_PastAfterIdleCycles(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net, WithHistory(0.1))

	w := value.Must(g.Writable("raw", value.Double, ir.Double(0)))
	require.NoError(t, b.BindInput(w, "raw"))
	require.NoError(t, net.Step()) // cycle 0 applies raw=0
	require.NoError(t, w.Set(ir.Double(7)))
	require.NoError(t, net.StepN(20)) // cycle 1 applies raw=7; 2..20 are idle

	for _, age := range []float64{0, 0.01, 0.05, 0.1} {
		v, err := value.Must(g.Past(w.Node, age)).CurrentValue(context.Background())
		require.NoError(t, err, "age %g", age)
		assert.Equal(t, ir.Double(7), v, "age %g", age)
	}

	// Reading again without stepping samples nothing new.
	v, err := value.Must(g.Past(w.Node, 0.1)).CurrentValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Double(7), v)
}

func TestBridge_PastAgesAreCycles(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net, WithHistory(0.05))

	w := value.Must(g.Writable("raw", value.Double, ir.Double(0)))
	require.NoError(t, b.BindInput(w, "raw"))
	require.NoError(t, net.Step()) // cycle 0: raw=0
	require.NoError(t, w.Set(ir.Double(3)))
	require.NoError(t, w.Set(ir.Double(5)))
	require.NoError(t, net.StepN(3)) // cycle 1: raw=5; 2, 3 idle

	want := map[float64]ir.Value{0: ir.Double(5), 0.01: ir.Double(5), 0.02: ir.Double(5), 0.03: ir.Double(0)}
	for age, expected := range want {
		v, err := value.Must(g.Past(w.Node, age)).CurrentValue(context.Background())
		require.NoError(t, err, "age %g", age)
		assert.Equal(t, expected, v, "age %g", age)
	}

	_, err := value.Must(g.Past(w.Node, 0.04)).CurrentValue(context.Background())
	assert.True(t, value.IsReadFailed(err), "nothing before cycle 0: %v", err)
}

func TestBridge_PastWithoutHistoryFails(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net)

	dev, err := b.BindOutput("scaled", value.Double, nil)
	require.NoError(t, err)
	require.NoError(t, net.Step())

	_, err = value.Must(g.Past(dev.Node, 0.01)).CurrentValue(context.Background())
	assert.True(t, value.IsReadFailed(err), "got %v", err)
}

func TestBridge_RecordRepeatsSkippedCycles(t *testing.T) {
	h, err := prim.NewHistoryBuffer(0.04, period)
	require.NoError(t, err)
	bd := &binding{key: "k", history: h}

	bd.record(netcomm.Update{Value: ir.Int(1), Cycle: 0})
	bd.record(netcomm.Update{Value: ir.Int(7), Cycle: 3})

	assert.Equal(t, int64(4), h.Pushes())
	v, ok := h.At(0)
	require.True(t, ok)
	assert.Equal(t, ir.Int(7), v)
	for _, age := range []float64{0.01, 0.02, 0.03} {
		v, ok = h.At(age)
		require.True(t, ok, "age %g", age)
		assert.Equal(t, ir.Int(1), v, "age %g", age)
	}
}

func TestBridge_RecordOneSamplePerCycle(t *testing.T) {
	h, err := prim.NewHistoryBuffer(0.04, period)
	require.NoError(t, err)
	bd := &binding{key: "k", history: h}

	bd.record(netcomm.Update{Value: ir.Int(1), Cycle: 0})
	bd.record(netcomm.Update{Value: ir.Int(2), Cycle: 1})
	bd.record(netcomm.Update{Value: ir.Int(3), Cycle: 1})

	assert.Equal(t, int64(2), h.Pushes())
	v, ok := bd.at(0, 1)
	require.True(t, ok)
	assert.Equal(t, ir.Int(3), v)
	v, ok = bd.at(0.01, 1)
	require.True(t, ok)
	assert.Equal(t, ir.Int(1), v)

	// Reading at cycle 3 samples cycles 2 and 3 with the held value.
	v, ok = bd.at(0.02, 3)
	require.True(t, ok)
	assert.Equal(t, ir.Int(3), v)
	assert.Equal(t, int64(4), h.Pushes())
}

func TestBridge_BindErrors(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net)

	t.Run("unknown key", func(t *testing.T) {
		_, err := b.BindOutput("missing", value.Double, nil)
		assert.Equal(t, netcomm.ErrCodeUnknownKey, netcomm.CodeOf(err))
	})
	t.Run("input to out channel", func(t *testing.T) {
		w := value.Must(g.Writable("scaled", value.Double, ir.Double(0)))
		assert.Equal(t, netcomm.ErrCodeWrongDirection, netcomm.CodeOf(b.BindInput(w, "scaled")))
	})
	t.Run("output from in channel", func(t *testing.T) {
		_, err := b.BindOutput("raw", value.Double, nil)
		assert.Equal(t, netcomm.ErrCodeWrongDirection, netcomm.CodeOf(err))
	})
	t.Run("kind mismatch", func(t *testing.T) {
		w := value.Must(g.Writable("raw", value.Int, ir.Int(0)))
		assert.Equal(t, netcomm.ErrCodeKindMismatch, netcomm.CodeOf(b.BindInput(w, "raw")))
	})
	t.Run("bound twice", func(t *testing.T) {
		_, err := b.BindOutput("scaled", value.Double, nil)
		require.NoError(t, err)
		_, err = b.BindOutput("scaled", value.Double, nil)
		assert.Equal(t, netcomm.ErrCodeDuplicateKey, netcomm.CodeOf(err))
	})
}

func TestBridge_CloseStopsForwarding(t *testing.T) {
	net := gainNet(t)
	b, g := newBridge(t, net)

	w := value.Must(g.Writable("raw", value.Double, ir.Double(3)))
	require.NoError(t, b.BindInput(w, "raw"))
	require.NoError(t, net.Step())

	b.Close()
	require.NoError(t, w.Set(ir.Double(50)))
	require.NoError(t, net.Step())

	raw, err := net.Bus().Lookup("raw")
	require.NoError(t, err)
	v, _ := raw.Get()
	assert.Equal(t, ir.Double(3), v)
}
