package prim

import (
	"fmt"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// BindingNodeName returns the name of the primitive Assemble inserts for a
// bound channel: "netcomm_in:<key>" or "netcomm_out:<key>".
func BindingNodeName(c ir.ChannelSpec) string {
	if c.Direction == ir.DirectionIn {
		return KindNetcommIn + ":" + c.Key
	}
	return KindNetcommOut + ":" + c.Key
}

// Assemble builds a net from its description.
//
// Channels are declared first, then nodes are added in declaration order
// and wired. A channel with a Port gets a netcomm primitive appended after
// the declared nodes: in channels feed Port, out channels publish it.
//
// Errors are *engine.BuildError; descriptions are never partially run.
func Assemble(spec ir.NetSpec, reg *Registry, opts ...engine.Option) (*engine.Net, error) {
	b, err := Prepare(spec, reg, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Prepare does everything Assemble does except Build, so callers can add
// primitives or inspect the bus first.
func Prepare(spec ir.NetSpec, reg *Registry, opts ...engine.Option) (*engine.Builder, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	b := engine.NewBuilder(spec.Name, spec.Period, opts...)

	for _, c := range spec.Channels {
		_, err := b.Declare(netcomm.ChannelConfig{
			Key:       c.Key,
			Direction: c.Direction,
			Kind:      c.Kind,
			Default:   c.Default,
			Report:    c.Report,
		})
		if err != nil {
			code := engine.ErrCodeInvalidParameter
			if netcomm.CodeOf(err) == netcomm.ErrCodeDuplicateKey {
				code = engine.ErrCodeDuplicate
			}
			return nil, &engine.BuildError{Code: code, Message: fmt.Sprintf("channel %q", c.Key), Err: err}
		}
	}

	for _, n := range spec.Nodes {
		p, err := reg.New(n)
		if err != nil {
			return nil, err
		}
		if err := b.Add(n.Name, p); err != nil {
			return nil, err
		}
	}

	for _, w := range spec.Wires {
		if err := b.Connect(w.From, w.To); err != nil {
			return nil, err
		}
	}

	for _, c := range spec.Channels {
		if c.Port == (ir.PortRef{}) {
			continue
		}
		name := BindingNodeName(c)
		switch c.Direction {
		case ir.DirectionIn:
			if err := b.Add(name, NewNetcommIn(c.Key, c.Kind)); err != nil {
				return nil, err
			}
			if err := b.Connect(ir.PortRef{Node: name, Port: "out"}, c.Port); err != nil {
				return nil, err
			}
		case ir.DirectionOut:
			if err := b.Add(name, NewNetcommOut(c.Key, c.Kind)); err != nil {
				return nil, err
			}
			if err := b.Connect(c.Port, ir.PortRef{Node: name, Port: "in"}); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
