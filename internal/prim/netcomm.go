package prim

import (
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// NetcommIn outputs the current value of an in channel each cycle. Host
// writes queued during cycle t are visible from cycle t+1. A channel with
// neither a default nor a write yields no value.
type NetcommIn struct {
	key  string
	outs []engine.PortSpec
	ch   *netcomm.Channel
}

// NewNetcommIn returns a reader of the in channel key, of kind k.
func NewNetcommIn(key string, k ir.Kind) *NetcommIn {
	return &NetcommIn{key: key, outs: outPort(k)}
}

func (p *NetcommIn) Kind() string               { return KindNetcommIn }
func (p *NetcommIn) Inputs() []engine.PortSpec  { return nil }
func (p *NetcommIn) Outputs() []engine.PortSpec { return p.outs }

func (p *NetcommIn) CheckParameters(env *engine.Env) error {
	ch, err := bindChannel(env, p.key, ir.DirectionIn, p.outs[0].Kind)
	if err != nil {
		return err
	}
	p.ch = ch
	return nil
}

func (p *NetcommIn) UpdateData(cx *engine.Cycle) error {
	if v, ok := p.ch.Get(); ok {
		cx.Output(0, v)
	}
	return nil
}

// NetcommOut publishes its input to an out channel after each successful
// cycle, stamped with the cycle index. A cycle without a value publishes
// nothing, so the channel keeps its last value and timestamp.
type NetcommOut struct {
	key string
	ins []engine.PortSpec
	ch  *netcomm.Channel
}

// NewNetcommOut returns a publisher to the out channel key, of kind k.
func NewNetcommOut(key string, k ir.Kind) *NetcommOut {
	return &NetcommOut{key: key, ins: []engine.PortSpec{{Name: "in", Kind: k}}}
}

func (p *NetcommOut) Kind() string               { return KindNetcommOut }
func (p *NetcommOut) Inputs() []engine.PortSpec  { return p.ins }
func (p *NetcommOut) Outputs() []engine.PortSpec { return nil }

func (p *NetcommOut) CheckParameters(env *engine.Env) error {
	ch, err := bindChannel(env, p.key, ir.DirectionOut, p.ins[0].Kind)
	if err != nil {
		return err
	}
	p.ch = ch
	return nil
}

func (p *NetcommOut) UpdateData(*engine.Cycle) error { return nil }

func (p *NetcommOut) WriteActuator(cx *engine.Cycle) error {
	if v, ok := cx.Input(0); ok {
		cx.Publish(p.ch, v)
	}
	return nil
}

func bindChannel(env *engine.Env, key string, dir ir.Direction, k ir.Kind) (*netcomm.Channel, error) {
	ch, err := env.Bus().Lookup(key)
	if err != nil {
		return nil, env.Invalid("channel %q is not declared", key)
	}
	if ch.Direction() != dir {
		return nil, env.Invalid("channel %q is %s, want %s", key, ch.Direction(), dir)
	}
	if k != ir.KindInvalid && ch.Kind() != k {
		return nil, env.Invalid("channel %q carries %s, want %s", key, ch.Kind(), k)
	}
	return ch, nil
}
