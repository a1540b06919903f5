package engine

import (
	"errors"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Minimal primitives for exercising the engine without the prim library.

var intOut = []PortSpec{{Name: "out", Kind: ir.KindInt}}

// source outputs a constant integer.
type source struct {
	value int64
	trace *[]string
}

func (p *source) Kind() string                { return "source" }
func (p *source) Inputs() []PortSpec          { return nil }
func (p *source) Outputs() []PortSpec         { return intOut }
func (p *source) CheckParameters(*Env) error  { return nil }
func (p *source) UpdateData(cx *Cycle) error {
	if p.trace != nil {
		*p.trace = append(*p.trace, cx.NodeName())
	}
	cx.Output(0, ir.Int(p.value))
	return nil
}

// pass copies its input to its output.
type pass struct {
	trace *[]string
}

func (p *pass) Kind() string               { return "pass" }
func (p *pass) Inputs() []PortSpec         { return []PortSpec{{Name: "in", Kind: ir.KindInt}} }
func (p *pass) Outputs() []PortSpec        { return intOut }
func (p *pass) CheckParameters(*Env) error { return nil }
func (p *pass) UpdateData(cx *Cycle) error {
	if p.trace != nil {
		*p.trace = append(*p.trace, cx.NodeName())
	}
	if v, ok := cx.Input(0); ok {
		cx.Output(0, v)
	}
	return nil
}

// adder is a strict integer add.
type adder struct{}

func (adder) Kind() string { return "adder" }
func (adder) Inputs() []PortSpec {
	return []PortSpec{{Name: "a", Kind: ir.KindInt}, {Name: "b", Kind: ir.KindInt}}
}
func (adder) Outputs() []PortSpec        { return intOut }
func (adder) CheckParameters(*Env) error { return nil }
func (adder) UpdateData(cx *Cycle) error {
	a, ok1 := cx.Input(0)
	b, ok2 := cx.Input(1)
	if ok1 && ok2 {
		cx.Output(0, a.(ir.Int)+b.(ir.Int))
	}
	return nil
}

// divider faults on a zero divisor.
type divider struct{}

func (divider) Kind() string { return "divider" }
func (divider) Inputs() []PortSpec {
	return []PortSpec{{Name: "a", Kind: ir.KindInt}, {Name: "b", Kind: ir.KindInt}}
}
func (divider) Outputs() []PortSpec        { return intOut }
func (divider) CheckParameters(*Env) error { return nil }
func (divider) UpdateData(cx *Cycle) error {
	a, ok1 := cx.Input(0)
	b, ok2 := cx.Input(1)
	if !ok1 || !ok2 {
		return nil
	}
	if b.(ir.Int) == 0 {
		return cx.Fault("integer division by zero")
	}
	cx.Output(0, a.(ir.Int)/b.(ir.Int))
	return nil
}

// latch outputs last cycle's input; its input is latched.
type latch struct {
	initial ir.Value
	slot    StateSlot
}

func (p *latch) Kind() string { return "latch" }
func (p *latch) Inputs() []PortSpec {
	return []PortSpec{{Name: "in", Kind: ir.KindInt, Latched: true}}
}
func (p *latch) Outputs() []PortSpec { return intOut }
func (p *latch) CheckParameters(env *Env) error {
	p.slot = env.AllocState(p.initial)
	return nil
}
func (p *latch) UpdateData(cx *Cycle) error {
	cx.Output(0, cx.State(p.slot))
	return nil
}
func (p *latch) WriteActuator(cx *Cycle) error {
	v, _ := cx.Input(0)
	cx.Stage(p.slot, v)
	return nil
}

// sink records its input each cycle; nil for "no value".
type sink struct {
	seen []ir.Value
}

func (p *sink) Kind() string { return "sink" }
func (p *sink) Inputs() []PortSpec {
	return []PortSpec{{Name: "in", Optional: true}}
}
func (p *sink) Outputs() []PortSpec        { return nil }
func (p *sink) CheckParameters(*Env) error { return nil }
func (p *sink) UpdateData(cx *Cycle) error {
	v, _ := cx.Input(0)
	p.seen = append(p.seen, v)
	return nil
}

// everyOther outputs the cycle index on even cycles only.
type everyOther struct{}

func (everyOther) Kind() string               { return "everyOther" }
func (everyOther) Inputs() []PortSpec         { return nil }
func (everyOther) Outputs() []PortSpec        { return intOut }
func (everyOther) CheckParameters(*Env) error { return nil }
func (everyOther) UpdateData(cx *Cycle) error {
	if cx.Index()%2 == 0 {
		cx.Output(0, ir.Int(cx.Index()))
	}
	return nil
}

// rejecting fails its parameter check.
type rejecting struct{}

func (rejecting) Kind() string        { return "rejecting" }
func (rejecting) Inputs() []PortSpec  { return nil }
func (rejecting) Outputs() []PortSpec { return nil }
func (rejecting) CheckParameters(env *Env) error {
	return errors.New("gain must be positive")
}
func (rejecting) UpdateData(*Cycle) error { return nil }

// chanIn reads an in channel.
type chanIn struct {
	key string
	ch  *netcomm.Channel
}

func (p *chanIn) Kind() string        { return "chanIn" }
func (p *chanIn) Inputs() []PortSpec  { return nil }
func (p *chanIn) Outputs() []PortSpec { return intOut }
func (p *chanIn) CheckParameters(env *Env) error {
	ch, err := env.Bus().Lookup(p.key)
	if err != nil {
		return env.Invalid("channel %q: %v", p.key, err)
	}
	p.ch = ch
	return nil
}
func (p *chanIn) UpdateData(cx *Cycle) error {
	if v, ok := p.ch.Get(); ok {
		cx.Output(0, v)
	}
	return nil
}

// chanOut publishes its input to an out channel.
type chanOut struct {
	key string
	ch  *netcomm.Channel
}

func (p *chanOut) Kind() string { return "chanOut" }
func (p *chanOut) Inputs() []PortSpec {
	return []PortSpec{{Name: "in", Kind: ir.KindInt}}
}
func (p *chanOut) Outputs() []PortSpec { return nil }
func (p *chanOut) CheckParameters(env *Env) error {
	ch, err := env.Bus().Lookup(p.key)
	if err != nil {
		return env.Invalid("channel %q: %v", p.key, err)
	}
	p.ch = ch
	return nil
}
func (p *chanOut) UpdateData(*Cycle) error { return nil }
func (p *chanOut) WriteActuator(cx *Cycle) error {
	if v, ok := cx.Input(0); ok {
		cx.Publish(p.ch, v)
	}
	return nil
}
