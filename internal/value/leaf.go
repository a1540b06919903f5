package value

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/rcore/internal/ir"
)

// Listener is notified with the new cached value of a leaf.
type Listener func(v ir.Value)

// leaf holds the mutable state behind an otherwise immutable leaf node.
type leaf struct {
	name     string
	presence Presence
	cached   atomic.Pointer[ir.Value]

	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

func newLeaf(name string, presence Presence) *leaf {
	return &leaf{
		name:      name,
		presence:  presence,
		listeners: make(map[uint64]Listener),
	}
}

func (l *leaf) load() (ir.Value, bool) {
	p := l.cached.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// store swaps in v and notifies listeners if the value changed. Listeners
// are snapshotted under the lock and called after it is released, in
// subscription order.
func (l *leaf) store(v ir.Value) {
	l.mu.Lock()
	if cur, ok := l.load(); ok && ir.Equal(cur, v) {
		l.mu.Unlock()
		return
	}
	l.cached.Store(&v)
	ids := make([]uint64, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	snapshot := make([]Listener, len(ids))
	for i, id := range ids {
		snapshot[i] = l.listeners[id]
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		fn(v)
	}
}

func (l *leaf) clear() {
	l.cached.Store(nil)
}

func (l *leaf) subscribe(fn Listener) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

// Writable is a host-settable leaf. Every call to Graph.Writable creates a
// distinct leaf, even with the same name.
type Writable struct {
	*Node
}

// Writable creates a settable leaf with an initial cached value.
func (g *Graph) Writable(name string, t Type, initial ir.Value) (*Writable, error) {
	if name == "" {
		return nil, invalidArg(OpWritable, "name is required")
	}
	v, ok := t.coerce(initial)
	if !ok {
		return nil, invalidArg(OpWritable, "initial value %s is not a %s", ir.FormatValue(initial), t)
	}
	l := newLeaf(name, nil)
	l.cached.Store(&v)
	n, err := g.intern(&Node{
		op:    OpWritable,
		typ:   t,
		attrs: map[string]any{"name": name, "serial": g.serial.Add(1)},
		leaf:  l,
	})
	if err != nil {
		return nil, err
	}
	return &Writable{Node: n}, nil
}

// Set updates the cached value. Setting an equal value is a no-op and does
// not notify listeners.
func (w *Writable) Set(v ir.Value) error {
	cv, ok := w.typ.coerce(v)
	if !ok {
		return invalidArg("Set", "value %s is not a %s", ir.FormatValue(v), w.typ)
	}
	w.leaf.store(cv)
	return nil
}

// Value returns the cached value.
func (w *Writable) Value() ir.Value {
	v, _ := w.leaf.load()
	return v
}

// Name returns the leaf name.
func (w *Writable) Name() string { return w.leaf.name }

// Subscribe registers fn for value changes. The returned cancel function is
// idempotent. Listeners run synchronously on the setter's goroutine.
func (w *Writable) Subscribe(fn Listener) (cancel func()) { return w.leaf.subscribe(fn) }

// Device is a leaf whose value is observed from outside the host, typically
// through a netcomm channel. Devices are identified by name and type.
type Device struct {
	*Node
}

// Device returns the device leaf for name and type, creating it on first use.
// presence may be nil for a device that is always present. A second call with
// the same name and type returns the same leaf and ignores presence.
func (g *Graph) Device(name string, t Type, presence Presence) (*Device, error) {
	if name == "" {
		return nil, invalidArg(OpDevice, "name is required")
	}
	n, err := g.intern(&Node{
		op:    OpDevice,
		typ:   t,
		attrs: map[string]any{"name": name},
		leaf:  newLeaf(name, presence),
	})
	if err != nil {
		return nil, err
	}
	return &Device{Node: n}, nil
}

// Observe records a newly observed value.
func (d *Device) Observe(v ir.Value) error {
	cv, ok := d.typ.coerce(v)
	if !ok {
		return invalidArg("Observe", "value %s is not a %s", ir.FormatValue(v), d.typ)
	}
	d.leaf.store(cv)
	return nil
}

// Forget drops the cached observation; the approximate value becomes unknown.
func (d *Device) Forget() { d.leaf.clear() }

// Name returns the leaf name.
func (d *Device) Name() string { return d.leaf.name }

// Subscribe registers fn for observation changes.
func (d *Device) Subscribe(fn Listener) (cancel func()) { return d.leaf.subscribe(fn) }

// AsWritable returns n as a Writable if it is a writable leaf.
func (n *Node) AsWritable() (*Writable, bool) {
	if n.op != OpWritable {
		return nil, false
	}
	return &Writable{Node: n}, true
}

// AsDevice returns n as a Device if it is a device leaf.
func (n *Node) AsDevice() (*Device, bool) {
	if n.op != OpDevice {
		return nil, false
	}
	return &Device{Node: n}, true
}
