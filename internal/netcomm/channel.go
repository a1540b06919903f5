package netcomm

import (
	"sort"
	"sync"

	"github.com/roach88/rcore/internal/ir"
)

// Update is one stamped change of a channel.
type Update struct {
	Key   string
	Value ir.Value
	Cycle int64
}

// Listener is notified of channel updates.
type Listener func(u Update)

// Channel is a named, typed netcomm slot.
//
// INVARIANTS:
//   - LastUpdated never decreases
//   - Value, cycle and the listener snapshot change under mu; listeners run
//     after mu is released
type Channel struct {
	key    string
	dir    ir.Direction
	kind   ir.Kind
	report bool
	bus    *Bus

	mu        sync.Mutex
	value     ir.Value
	cycle     int64
	updated   bool
	listeners map[uint64]Listener
	nextID    uint64
}

// Key returns the channel key.
func (c *Channel) Key() string { return c.key }

// Direction returns which side writes the channel.
func (c *Channel) Direction() ir.Direction { return c.dir }

// Kind returns the payload kind.
func (c *Channel) Kind() ir.Kind { return c.kind }

// Report reports whether the channel appears in the report line.
func (c *Channel) Report() bool { return c.report }

// Get returns the last value. Before the first update this is the declared
// default, if any.
func (c *Channel) Get() (ir.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.value != nil
}

// LastUpdated returns the cycle of the last update, or false if the channel
// has never been updated.
func (c *Channel) LastUpdated() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle, c.updated
}

// Set queues a host write to an in channel. The value becomes visible to the
// net, and to Get, at the start of the net's next cycle.
func (c *Channel) Set(v ir.Value) error {
	if c.dir != ir.DirectionIn {
		return &Error{Code: ErrCodeWrongDirection, Key: c.key, Message: "host writes go to in channels only"}
	}
	cv, err := c.coerce(v)
	if err != nil {
		return err
	}
	if !c.bus.inbox.enqueue(write{ch: c, value: cv}) {
		return &Error{Code: ErrCodeClosed, Key: c.key, Message: "bus is closed"}
	}
	return nil
}

// SetString parses the wire string form and queues it as Set does.
func (c *Channel) SetString(s string) error {
	v, err := ir.ParseValue(c.kind, s)
	if err != nil {
		return &Error{Code: ErrCodeKindMismatch, Key: c.key, Message: "unparseable payload", Err: err}
	}
	return c.Set(v)
}

// Publish records a value produced by the net in cycle. It is called by the
// net at the end of a successful cycle for out channels, and when applying
// queued host writes for in channels.
func (c *Channel) Publish(v ir.Value, cycle int64) error {
	cv, err := c.coerce(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.updated && cycle < c.cycle {
		c.mu.Unlock()
		return &Error{Code: ErrCodeStale, Key: c.key, Message: "update older than last update"}
	}
	c.value = cv
	c.cycle = cycle
	c.updated = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	u := Update{Key: c.key, Value: cv, Cycle: cycle}
	for _, fn := range snapshot {
		fn(u)
	}
	c.bus.record(c, u)
	return nil
}

// Subscribe registers fn for updates. The returned cancel is idempotent.
func (c *Channel) Subscribe(fn Listener) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Channel) snapshotLocked() []Listener {
	if len(c.listeners) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = c.listeners[id]
	}
	return out
}

func (c *Channel) coerce(v ir.Value) (ir.Value, error) {
	if v == nil {
		return nil, &Error{Code: ErrCodeKindMismatch, Key: c.key, Message: "missing payload"}
	}
	cv, err := ir.Coerce(v, c.kind)
	if err != nil {
		return nil, &Error{Code: ErrCodeKindMismatch, Key: c.key, Message: "payload kind", Err: err}
	}
	return cv, nil
}
