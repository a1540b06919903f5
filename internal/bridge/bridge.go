// Package bridge connects the host value graph to a running net through its
// netcomm channels.
//
// Writable leaves are pushed into in channels; out channels are observed as
// device leaves. The Bridge is also the graph's LeafReader: CurrentValue of
// any expression over bound leaves is evaluated on the host from channel
// values, and Past nodes over bound leaves read a per-channel history.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
	"github.com/roach88/rcore/internal/prim"
	"github.com/roach88/rcore/internal/value"
)

// Bridge binds value-graph leaves to netcomm channels of one bus.
//
// Thread-safety: safe for concurrent use. Channel listeners run on the
// net's goroutine; leaf listeners on the setter's.
type Bridge struct {
	graph  *value.Graph
	bus    *netcomm.Bus
	clock  Clock
	maxAge float64
	logger *slog.Logger

	mu       sync.RWMutex
	bindings map[value.Handle]*binding
	cancels  []func()
}

type binding struct {
	key     string
	ch      *netcomm.Channel
	history *prim.HistoryBuffer // nil without WithHistory

	mu        sync.Mutex
	lastCycle int64
	lastValue ir.Value
	seen      bool
}

// Clock is the bound net's cycle clock. *engine.CycleClock implements it.
type Clock interface {
	// Current returns the index of the next cycle to run.
	Current() int64
	// Period returns the cycle period in seconds.
	Period() float64
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for dropped writes. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithHistory keeps maxAge seconds of history per bound channel, so Past
// nodes over bound leaves can be read.
func WithHistory(maxAge float64) Option {
	return func(b *Bridge) {
		b.maxAge = maxAge
	}
}

// New returns a bridge between g and the bus of the net clocked by clock.
// The clock converts ages into cycles and dates Past reads.
func New(g *value.Graph, bus *netcomm.Bus, clock Clock, opts ...Option) *Bridge {
	b := &Bridge{
		graph:    g,
		bus:      bus,
		clock:    clock,
		logger:   slog.Default(),
		bindings: make(map[value.Handle]*binding),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach installs the bridge as the graph's runtime.
func (b *Bridge) Attach() {
	b.graph.SetRuntime(value.EvalRuntime{Leaves: b})
}

// BindInput pushes w into the in channel key: its current value now, and
// every change from then on. The net sees each write from the cycle after
// it lands.
func (b *Bridge) BindInput(w *value.Writable, key string) error {
	ch, err := b.channel(key, ir.DirectionIn, w.Type())
	if err != nil {
		return err
	}
	bd, err := b.bind(w.Node, key, ch)
	if err != nil {
		return err
	}

	if err := ch.Set(w.Value()); err != nil {
		return fmt.Errorf("bind input %q: %w", key, err)
	}
	stopLeaf := w.Subscribe(func(v ir.Value) {
		if err := ch.Set(v); err != nil {
			b.logger.Warn("netcomm write dropped", "net", b.bus.Name(), "key", key, "error", err)
		}
	})
	stopCh := ch.Subscribe(bd.record)

	b.mu.Lock()
	b.cancels = append(b.cancels, stopLeaf, stopCh)
	b.mu.Unlock()
	return nil
}

// BindOutput returns the device leaf observing the out channel key. Every
// publish is observed; presence nil means "present once the net has
// published at least once".
func (b *Bridge) BindOutput(key string, t value.Type, presence value.Presence) (*value.Device, error) {
	ch, err := b.channel(key, ir.DirectionOut, t)
	if err != nil {
		return nil, err
	}
	if presence == nil {
		presence = ChannelPresence(ch)
	}
	dev, err := b.graph.Device(key, t, presence)
	if err != nil {
		return nil, err
	}
	bd, err := b.bind(dev.Node, key, ch)
	if err != nil {
		return nil, err
	}

	if v, ok := ch.Get(); ok {
		if err := dev.Observe(v); err != nil {
			return nil, err
		}
	}
	stop := ch.Subscribe(func(u netcomm.Update) {
		bd.record(u)
		if err := dev.Observe(u.Value); err != nil {
			b.logger.Warn("observation dropped", "net", b.bus.Name(), "key", key, "error", err)
		}
	})

	b.mu.Lock()
	b.cancels = append(b.cancels, stop)
	b.mu.Unlock()
	return dev, nil
}

// ChannelPresence reports a channel present once it has been updated.
func ChannelPresence(ch *netcomm.Channel) value.Presence {
	return value.PresenceFunc(func() value.PresenceState {
		if _, ok := ch.LastUpdated(); ok {
			return value.PresencePresent
		}
		return value.PresenceAbsent
	})
}

func (b *Bridge) channel(key string, dir ir.Direction, t value.Type) (*netcomm.Channel, error) {
	ch, err := b.bus.Lookup(key)
	if err != nil {
		return nil, err
	}
	if ch.Direction() != dir {
		return nil, &netcomm.Error{Code: netcomm.ErrCodeWrongDirection, Key: key, Message: fmt.Sprintf("want an %s channel", dir)}
	}
	if ch.Kind() != t.Kind() {
		return nil, &netcomm.Error{Code: netcomm.ErrCodeKindMismatch, Key: key, Message: fmt.Sprintf("channel carries %s, leaf is %s", ch.Kind(), t)}
	}
	return ch, nil
}

func (b *Bridge) bind(n *value.Node, key string, ch *netcomm.Channel) (*binding, error) {
	bd := &binding{key: key, ch: ch}
	if b.maxAge > 0 {
		h, err := prim.NewHistoryBuffer(b.maxAge, b.clock.Period())
		if err != nil {
			return nil, fmt.Errorf("bind %q: %w", key, err)
		}
		bd.history = h
		if v, ok := ch.Get(); ok {
			if cycle, ok := ch.LastUpdated(); ok {
				bd.record(netcomm.Update{Key: key, Value: v, Cycle: cycle})
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.bindings[n.Handle()]; exists {
		return nil, &netcomm.Error{Code: netcomm.ErrCodeDuplicateKey, Key: key, Message: n.String() + " is already bound"}
	}
	b.bindings[n.Handle()] = bd
	return bd, nil
}

// record samples a channel update into the history, one sample per cycle.
// Cycles skipped since the previous update repeat the previous value: a
// channel holds its value until updated. A later update stamped with a cycle
// that already has a sample replaces it.
func (bd *binding) record(u netcomm.Update) {
	if bd.history == nil {
		return
	}
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.seen && u.Cycle <= bd.lastCycle {
		bd.history.ReplaceNewest(u.Value)
		bd.lastValue = u.Value
		return
	}
	if bd.seen {
		bd.padTo(u.Cycle - 1)
	}
	bd.history.Push(u.Value)
	bd.lastCycle, bd.lastValue, bd.seen = u.Cycle, u.Value, true
}

// padTo repeats the last value for every cycle after the newest sample up
// to and including cycle. Callers hold bd.mu.
func (bd *binding) padTo(cycle int64) {
	if cycle <= bd.lastCycle {
		return
	}
	gap := min(cycle-bd.lastCycle, int64(bd.history.Len()))
	for i := int64(0); i < gap; i++ {
		bd.history.Push(bd.lastValue)
	}
	bd.lastCycle = cycle
}

// at returns the sample from age seconds before cycle now, sampling the
// idle cycles since the last update first.
func (bd *binding) at(age float64, now int64) (ir.Value, bool) {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if bd.seen {
		bd.padTo(now)
	}
	return bd.history.At(age)
}

// ReadLeaf implements value.LeafReader for bound device leaves and for Past
// nodes over any bound leaf.
func (b *Bridge) ReadLeaf(ctx context.Context, n *value.Node) (ir.Value, error) {
	if age, ok := n.Age(); ok {
		bd, err := b.lookup(n.Operand(0))
		if err != nil {
			return nil, err
		}
		if bd.history == nil {
			return nil, fmt.Errorf("channel %q keeps no history", bd.key)
		}
		// The last completed cycle is the newest sample.
		v, ok := bd.at(age, b.clock.Current()-1)
		if !ok {
			return nil, fmt.Errorf("channel %q has no sample %gs ago", bd.key, age)
		}
		return v, nil
	}

	bd, err := b.lookup(n)
	if err != nil {
		return nil, err
	}
	v, ok := bd.ch.Get()
	if !ok {
		return nil, fmt.Errorf("channel %q has no value", bd.key)
	}
	return v, nil
}

func (b *Bridge) lookup(n *value.Node) (*binding, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bd, ok := b.bindings[n.Handle()]
	if !ok || n.Graph() != b.graph {
		return nil, fmt.Errorf("%s is not bound to a channel", n)
	}
	return bd, nil
}

// Close removes every subscription. Bound leaves keep their last values.
func (b *Bridge) Close() {
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = nil
	b.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}
