package prim

import (
	"fmt"
	"math"
	"sync"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// snapEpsilon absorbs float error in age and length arithmetic, so that
// 0.3/0.1 counts as 3 and not 2.9999999999999996.
const snapEpsilon = 1e-9

func snap(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < snapEpsilon {
		return r
	}
	return x
}

// HistoryWindow maps sample ages to ring slots for a buffer covering maxAge
// seconds at a fixed cycle period.
//
// Length is ceil(maxAge/period)+1. Slot 1 is the newest sample, slot Len()
// the oldest.
type HistoryWindow struct {
	maxAge float64
	period float64
	length int
}

// NewHistoryWindow validates maxAge and period and sizes the window.
func NewHistoryWindow(maxAge, period float64) (HistoryWindow, error) {
	if !(maxAge > 0) || math.IsInf(maxAge, 0) {
		return HistoryWindow{}, fmt.Errorf("max age must be positive and finite, got %g", maxAge)
	}
	if !(period > 0) || math.IsInf(period, 0) {
		return HistoryWindow{}, fmt.Errorf("period must be positive and finite, got %g", period)
	}
	n := math.Ceil(snap(maxAge / period))
	if n > math.MaxInt32 {
		return HistoryWindow{}, fmt.Errorf("history of %gs at %gs per cycle is too long", maxAge, period)
	}
	return HistoryWindow{maxAge: maxAge, period: period, length: int(n) + 1}, nil
}

// Len returns the number of slots.
func (w HistoryWindow) Len() int { return w.length }

// MaxAge returns the oldest age the window answers, in seconds.
func (w HistoryWindow) MaxAge() float64 { return w.maxAge }

// Offset returns the 1-based slot for age, floor((age/maxAge)*(Len-1))+1.
// Negative ages clamp to 0; ages above MaxAge (and NaN) have no slot.
func (w HistoryWindow) Offset(age float64) (int, bool) {
	if math.IsNaN(age) || age > w.maxAge {
		return 0, false
	}
	if age < 0 {
		age = 0
	}
	off := int(math.Floor(snap(age/w.maxAge*float64(w.length-1)))) + 1
	return min(max(off, 1), w.length), true
}

// HistoryBuffer is a ring of samples answering "value age seconds ago".
// A nil sample records a cycle without a value.
//
// Thread-safety: safe for concurrent use.
type HistoryBuffer struct {
	window HistoryWindow

	mu    sync.Mutex
	ring  []ir.Value
	head  int // next write position
	fill  int
	total int64
}

// NewHistoryBuffer allocates a buffer for maxAge seconds at period.
func NewHistoryBuffer(maxAge, period float64) (*HistoryBuffer, error) {
	w, err := NewHistoryWindow(maxAge, period)
	if err != nil {
		return nil, err
	}
	return &HistoryBuffer{window: w, ring: make([]ir.Value, w.Len())}, nil
}

// Window returns the buffer's slot mapping.
func (h *HistoryBuffer) Window() HistoryWindow { return h.window }

// Len returns the buffer length.
func (h *HistoryBuffer) Len() int { return h.window.Len() }

// Push records the newest sample, overwriting the oldest once full.
func (h *HistoryBuffer) Push(v ir.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(v)
}

// ReplaceNewest overwrites the newest sample; on an empty buffer it pushes.
func (h *HistoryBuffer) ReplaceNewest(v ir.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fill == 0 {
		h.push(v)
		return
	}
	h.ring[(h.head-1+len(h.ring))%len(h.ring)] = v
}

func (h *HistoryBuffer) push(v ir.Value) {
	h.ring[h.head] = v
	h.head = (h.head + 1) % len(h.ring)
	h.fill = min(h.fill+1, len(h.ring))
	h.total++
}

// At returns the sample from age seconds ago. It reports false for ages
// beyond MaxAge, for slots older than the samples pushed so far, and for
// cycles recorded without a value.
func (h *HistoryBuffer) At(age float64) (ir.Value, bool) {
	off, ok := h.window.Offset(age)
	if !ok {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if off > h.fill {
		return nil, false
	}
	v := h.ring[(h.head-off+len(h.ring))%len(h.ring)]
	return v, v != nil
}

// Filled returns how many slots hold samples.
func (h *HistoryBuffer) Filled() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fill
}

// Pushes returns how many samples were ever pushed.
func (h *HistoryBuffer) Pushes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// History samples its input every cycle and outputs the sample from "age"
// seconds ago. Age 0 is the current cycle's input.
//
// Params: max_age (double seconds, required). The past samples live in
// state slots, so a faulted cycle leaves the history untouched.
type History struct {
	maxAge float64
	ins    []engine.PortSpec
	outs   []engine.PortSpec

	window HistoryWindow
	ring   []engine.StateSlot // Len()-1 past samples
	count  engine.StateSlot   // samples written so far
}

// NewHistory returns a history of kind k covering maxAge seconds.
func NewHistory(k ir.Kind, maxAge float64) *History {
	return &History{
		maxAge: maxAge,
		ins: []engine.PortSpec{
			{Name: "in", Kind: k},
			{Name: "age", Kind: ir.KindDouble},
		},
		outs: outPort(k),
	}
}

func newHistory(spec ir.NodeSpec) (engine.Primitive, error) {
	maxAge, ok, err := paramsOf(spec).double("max_age")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("parameter %q is required", "max_age")
	}
	return NewHistory(spec.Type, maxAge), nil
}

func (p *History) Kind() string               { return KindHistory }
func (p *History) Inputs() []engine.PortSpec  { return p.ins }
func (p *History) Outputs() []engine.PortSpec { return p.outs }
func (p *History) BindKind(k ir.Kind)         { bindGeneric(k, p.ins, p.outs) }

func (p *History) CheckParameters(env *engine.Env) error {
	w, err := NewHistoryWindow(p.maxAge, env.Period())
	if err != nil {
		return env.Invalid("%v", err)
	}
	p.window = w
	p.ring = make([]engine.StateSlot, w.Len()-1)
	for i := range p.ring {
		p.ring[i] = env.AllocState(nil)
	}
	p.count = env.AllocState(ir.Int(0))
	return nil
}

func (p *History) UpdateData(cx *engine.Cycle) error {
	age, ok := cx.Input(1)
	if !ok {
		return nil
	}
	off, ok := p.window.Offset(float64(age.(ir.Double)))
	if !ok {
		return nil
	}
	if off == 1 {
		if v, ok := cx.Input(0); ok {
			cx.Output(0, v)
		}
		return nil
	}

	back := int64(off - 1)
	count := int64(cx.State(p.count).(ir.Int))
	if back > count {
		return nil
	}
	n := int64(len(p.ring))
	if v := cx.State(p.ring[(count-back)%n]); v != nil {
		cx.Output(0, v)
	}
	return nil
}

func (p *History) WriteActuator(cx *engine.Cycle) error {
	count := int64(cx.State(p.count).(ir.Int))
	v, _ := cx.Input(0)
	cx.Stage(p.ring[count%int64(len(p.ring))], v)
	cx.Stage(p.count, ir.Int(count+1))
	return nil
}
