package netcomm

import (
	"log/slog"
	"sync"

	"github.com/roach88/rcore/internal/ir"
)

// Recorder receives every applied channel update. It is called on the net's
// goroutine (out channels and applied in writes) and must not block for long.
type Recorder interface {
	RecordUpdate(net string, dir ir.Direction, u Update) error
}

// ChannelConfig declares a channel on a Bus.
type ChannelConfig struct {
	Key       string
	Direction ir.Direction
	Kind      ir.Kind
	Default   ir.Value
	Report    bool
}

// Bus is the per-net registry of channels, keyed by unique string key.
type Bus struct {
	name   string
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[string]*Channel
	order    []*Channel
	recorder Recorder

	inbox *inbox
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for recorder failures.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = l
	}
}

// WithRecorder forwards every applied update to r.
func WithRecorder(r Recorder) BusOption {
	return func(b *Bus) {
		b.recorder = r
	}
}

// NewBus creates an empty bus for the named net.
func NewBus(name string, opts ...BusOption) *Bus {
	b := &Bus{
		name:     name,
		logger:   slog.Default(),
		channels: make(map[string]*Channel),
		inbox:    newInbox(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the owning net's name.
func (b *Bus) Name() string { return b.name }

// SetRecorder replaces the recorder. nil detaches it.
func (b *Bus) SetRecorder(r Recorder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorder = r
}

// Declare adds a channel. Keys are unique per bus.
func (b *Bus) Declare(cfg ChannelConfig) (*Channel, error) {
	if cfg.Key == "" {
		return nil, &Error{Code: ErrCodeUnknownKey, Message: "channel key is required"}
	}
	if !ir.ValidDirections[cfg.Direction] {
		return nil, &Error{Code: ErrCodeWrongDirection, Key: cfg.Key, Message: "invalid direction " + string(cfg.Direction)}
	}
	if cfg.Kind == ir.KindInvalid {
		return nil, &Error{Code: ErrCodeKindMismatch, Key: cfg.Key, Message: "channel kind is required"}
	}

	c := &Channel{
		key:       cfg.Key,
		dir:       cfg.Direction,
		kind:      cfg.Kind,
		report:    cfg.Report,
		bus:       b,
		listeners: make(map[uint64]Listener),
	}
	if cfg.Default != nil {
		dv, err := c.coerce(cfg.Default)
		if err != nil {
			return nil, err
		}
		c.value = dv
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.channels[cfg.Key]; exists {
		return nil, &Error{Code: ErrCodeDuplicateKey, Key: cfg.Key, Message: "channel already declared"}
	}
	b.channels[cfg.Key] = c
	b.order = append(b.order, c)
	return c, nil
}

// Channel returns the channel for key.
func (b *Bus) Channel(key string) (*Channel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.channels[key]
	return c, ok
}

// Lookup returns the channel for key or an unknown-key error.
func (b *Bus) Lookup(key string) (*Channel, error) {
	c, ok := b.Channel(key)
	if !ok {
		return nil, &Error{Code: ErrCodeUnknownKey, Key: key, Message: "no such channel"}
	}
	return c, nil
}

// Channels returns every channel in declaration order.
func (b *Bus) Channels() []*Channel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Channel, len(b.order))
	copy(out, b.order)
	return out
}

// Keys returns every key in declaration order.
func (b *Bus) Keys() []string {
	chans := b.Channels()
	keys := make([]string, len(chans))
	for i, c := range chans {
		keys[i] = c.key
	}
	return keys
}

// Snapshot returns the current value of every channel that has one.
func (b *Bus) Snapshot() map[string]ir.Value {
	out := make(map[string]ir.Value)
	for _, c := range b.Channels() {
		if v, ok := c.Get(); ok {
			out[c.key] = v
		}
	}
	return out
}

// ApplyPending applies every queued host write, stamped with cycle, in the
// order the writes were made. It returns the number applied. Called by the
// net at the start of each cycle.
func (b *Bus) ApplyPending(cycle int64) int {
	writes := b.inbox.drain()
	for _, w := range writes {
		// Coerced at Set time; Publish cannot fail on kind. A stale error
		// is impossible because cycle only grows.
		if err := w.ch.Publish(w.value, cycle); err != nil {
			b.logger.Error("netcomm write dropped", "net", b.name, "key", w.ch.key, "error", err)
		}
	}
	return len(writes)
}

// Pending returns the number of queued host writes.
func (b *Bus) Pending() int { return b.inbox.len() }

// Wait returns a channel that is signalled when a host write is queued and
// closed when the bus closes.
func (b *Bus) Wait() <-chan struct{} { return b.inbox.wait() }

// Close stops accepting host writes. Queued writes are discarded.
func (b *Bus) Close() {
	b.inbox.close()
}

func (b *Bus) record(c *Channel, u Update) {
	b.mu.RLock()
	r := b.recorder
	b.mu.RUnlock()
	if r == nil {
		return
	}
	if err := r.RecordUpdate(b.name, c.dir, u); err != nil {
		b.logger.Warn("netcomm record failed", "net", b.name, "key", u.Key, "cycle", u.Cycle, "error", err)
	}
}

// MultiRecorder forwards each update to every recorder in order. All are
// called; the first error is returned.
type MultiRecorder []Recorder

// RecordUpdate implements Recorder.
func (m MultiRecorder) RecordUpdate(net string, dir ir.Direction, u Update) error {
	var first error
	for _, r := range m {
		if err := r.RecordUpdate(net, dir, u); err != nil && first == nil {
			first = err
		}
	}
	return first
}
