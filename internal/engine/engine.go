package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Metrics receives per-net execution events.
// Implemented by metric.Collector (Prometheus) and nopMetrics.
type Metrics interface {
	CycleCompleted(net string, d time.Duration)
	Overrun(net string)
	Faulted(net string)
}

type nopMetrics struct{}

func (nopMetrics) CycleCompleted(string, time.Duration) {}
func (nopMetrics) Overrun(string)                       {}
func (nopMetrics) Faulted(string)                       {}

// Net is a built, fixed network of primitives.
//
// Thread-safety model:
//   - Step and Run: one goroutine at a time (Step serializes internally)
//   - Bus channels: safe from any goroutine
//   - Cycle, Faulted, Overruns and the accessors: safe from any goroutine
//
// INVARIANTS:
//   - nodes order NEVER changes after Build
//   - values has one slot per output port; every slot is nil at cycle start
//   - state changes only in commit, after a fully successful cycle
type Net struct {
	id      string
	name    string
	period  float64
	bus     *netcomm.Bus
	logger  *slog.Logger
	metrics Metrics
	report  *netcomm.Reporter

	clock     *CycleClock
	nodes     []*netNode // in schedule order
	actuators []*netNode // nodes implementing Actuator, in schedule order

	values     []ir.Value // port arena
	state      []ir.Value // committed state arena
	next       []ir.Value // staged state arena
	staged     []bool
	stagedList []StateSlot
	publishes  []publish

	mu       sync.Mutex
	fault    atomic.Pointer[FaultError]
	overruns atomic.Int64
}

type netNode struct {
	name    string
	prim    Primitive
	act     Actuator
	inputs  []int // source slot per input; -1 when unconnected
	outBase int
}

func newNet(b *Builder, order []int) *Net {
	outBase := make([]int, len(b.nodes))
	slots := 0
	for i, n := range b.nodes {
		outBase[i] = slots
		slots += len(n.outs)
	}

	net := &Net{
		id:      b.ids.Generate(),
		name:    b.name,
		period:  b.period,
		bus:     b.bus,
		logger:  b.logger,
		metrics: b.metrics,
		clock:   NewCycleClock(b.period),
		values:  make([]ir.Value, slots),
		state:   append([]ir.Value(nil), b.state...),
		next:    make([]ir.Value, len(b.state)),
		staged:  make([]bool, len(b.state)),
	}
	if b.reportLimit > 0 {
		net.report = netcomm.NewReporter(b.bus, b.reportLimit, b.reportBurst, b.logger)
	}

	for _, idx := range order {
		bn := b.nodes[idx]
		nn := &netNode{
			name:    bn.name,
			prim:    bn.prim,
			inputs:  make([]int, len(bn.ins)),
			outBase: outBase[idx],
		}
		for i, src := range bn.sources {
			nn.inputs[i] = -1
			if src != nil {
				nn.inputs[i] = outBase[src.node.index] + src.port
			}
		}
		if act, ok := bn.prim.(Actuator); ok {
			nn.act = act
			net.actuators = append(net.actuators, nn)
		}
		net.nodes = append(net.nodes, nn)
	}
	return net
}

// ID returns the instance ID.
func (n *Net) ID() string { return n.id }

// Name returns the net name.
func (n *Net) Name() string { return n.name }

// Period returns the cycle period in seconds.
func (n *Net) Period() float64 { return n.period }

// Bus returns the net's channel registry.
func (n *Net) Bus() *netcomm.Bus { return n.bus }

// Clock returns the net's cycle clock.
func (n *Net) Clock() *CycleClock { return n.clock }

// Order returns the node names in execution order.
func (n *Net) Order() []string {
	names := make([]string, len(n.nodes))
	for i, nn := range n.nodes {
		names[i] = nn.name
	}
	return names
}

// Faulted returns the fault that stopped the net, or nil.
func (n *Net) Faulted() *FaultError { return n.fault.Load() }

// Overruns returns how many cycles took longer than the period under Run.
func (n *Net) Overruns() int64 { return n.overruns.Load() }

// Step runs exactly one cycle.
//
// ERROR HANDLING: a fault aborts the cycle without committing state or
// publishing out channels, and is returned as a *FaultError with
// ErrCodeFault. The net stays faulted; later calls return ErrCodeFaulted
// without running anything. There are no retries.
func (n *Net) Step() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if f := n.fault.Load(); f != nil {
		return &FaultError{
			Code:    ErrCodeFaulted,
			Net:     n.name,
			Node:    f.Node,
			Cycle:   n.clock.Current(),
			Message: "net is faulted",
			Err:     f,
		}
	}

	start := time.Now()
	index := n.clock.Current()
	n.bus.ApplyPending(index)
	clear(n.values)

	cx := &Cycle{net: n, index: index}
	for _, nn := range n.nodes {
		cx.node = nn
		if err := nn.prim.UpdateData(cx); err != nil {
			return n.abort(cx, err)
		}
	}
	for _, nn := range n.actuators {
		cx.node = nn
		if err := nn.act.WriteActuator(cx); err != nil {
			return n.abort(cx, err)
		}
	}

	n.commit()
	for _, p := range n.publishes {
		if err := p.ch.Publish(p.value, index); err != nil {
			n.logger.Warn("publish dropped", "net", n.name, "cycle", index, "key", p.ch.Key(), "error", err)
		}
	}
	clear(n.publishes)
	n.publishes = n.publishes[:0]

	n.clock.Advance()
	n.metrics.CycleCompleted(n.name, time.Since(start))
	if n.report != nil {
		n.report.Emit(index)
	}
	return nil
}

// StepN runs count cycles, stopping at the first error.
func (n *Net) StepN(count int) error {
	for i := 0; i < count; i++ {
		if err := n.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Net) commit() {
	for _, s := range n.stagedList {
		n.state[s] = n.next[s]
		n.next[s] = nil
		n.staged[s] = false
	}
	n.stagedList = n.stagedList[:0]
}

// abort discards the cycle's staged work and faults the net.
func (n *Net) abort(cx *Cycle, err error) error {
	for _, s := range n.stagedList {
		n.next[s] = nil
		n.staged[s] = false
	}
	n.stagedList = n.stagedList[:0]
	clear(n.publishes)
	n.publishes = n.publishes[:0]

	fe, ok := err.(*FaultError)
	if !ok {
		fe = cx.Fault("%s failed", cx.node.prim.Kind())
		fe.Err = err
	}
	n.fault.Store(fe)
	n.metrics.Faulted(n.name)
	n.logger.Error("net faulted",
		"net", n.name,
		"id", n.id,
		"cycle", fe.Cycle,
		"node", fe.Node,
		"error", err,
	)
	return fe
}
