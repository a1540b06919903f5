package engine

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Builder assembles a net. Add primitives first, then connect them; Build
// validates everything and freezes the topology.
//
// A Builder is not safe for concurrent use and builds at most one net.
type Builder struct {
	name    string
	period  float64
	bus     *netcomm.Bus
	logger  *slog.Logger
	ids     IDGenerator
	metrics Metrics

	reportLimit rate.Limit
	reportBurst int

	nodes  []*buildNode
	byName map[string]*buildNode
	state  []ir.Value
	built  bool
}

type buildNode struct {
	name    string
	index   int
	prim    Primitive
	ins     []PortSpec
	outs    []PortSpec
	sources []*outRef // per input; nil when unconnected
}

type outRef struct {
	node *buildNode
	port int
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the net's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithIDGenerator sets the instance ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Builder) {
		b.ids = g
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithBus uses an existing channel registry instead of a fresh one.
func WithBus(bus *netcomm.Bus) Option {
	return func(b *Builder) {
		b.bus = bus
	}
}

// WithReport enables the monitoring report line, logged at most limit times
// per second with bursts of burst.
func WithReport(limit rate.Limit, burst int) Option {
	return func(b *Builder) {
		b.reportLimit = limit
		b.reportBurst = burst
	}
}

// NewBuilder starts a net with the given name and cycle period in seconds.
func NewBuilder(name string, period float64, opts ...Option) *Builder {
	b := &Builder{
		name:    name,
		period:  period,
		logger:  slog.Default(),
		ids:     UUIDv7Generator{},
		metrics: nopMetrics{},
		byName:  make(map[string]*buildNode),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.bus == nil {
		b.bus = netcomm.NewBus(name, netcomm.WithLogger(b.logger))
	}
	return b
}

// Bus returns the net's channel registry.
func (b *Builder) Bus() *netcomm.Bus { return b.bus }

// Period returns the cycle period in seconds.
func (b *Builder) Period() float64 { return b.period }

// Has reports whether a node with this name was added.
func (b *Builder) Has(name string) bool {
	_, ok := b.byName[name]
	return ok
}

// Add appends a primitive. Insertion order breaks scheduling ties.
func (b *Builder) Add(name string, p Primitive) error {
	if name == "" {
		return &BuildError{Code: ErrCodeInvalidParameter, Message: "node name is required"}
	}
	if p == nil {
		return &BuildError{Code: ErrCodeInvalidParameter, Node: name, Message: "primitive is nil"}
	}
	if _, exists := b.byName[name]; exists {
		return &BuildError{Code: ErrCodeDuplicate, Node: name, Message: "node name already used"}
	}
	ins, outs := p.Inputs(), p.Outputs()
	if err := uniquePorts(name, "input", ins); err != nil {
		return err
	}
	if err := uniquePorts(name, "output", outs); err != nil {
		return err
	}

	n := &buildNode{
		name:    name,
		index:   len(b.nodes),
		prim:    p,
		ins:     ins,
		outs:    outs,
		sources: make([]*outRef, len(ins)),
	}
	b.nodes = append(b.nodes, n)
	b.byName[name] = n
	return nil
}

func uniquePorts(node, side string, ports []PortSpec) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if p.Name == "" {
			return &BuildError{Code: ErrCodeInvalidParameter, Node: node, Message: side + " port without a name"}
		}
		if seen[p.Name] {
			return &BuildError{Code: ErrCodeDuplicate, Node: node, Message: fmt.Sprintf("%s port %q declared twice", side, p.Name)}
		}
		seen[p.Name] = true
	}
	return nil
}

// Connect wires output port from to input port to. Each input takes at most
// one wire; an output may feed any number of inputs.
func (b *Builder) Connect(from, to ir.PortRef) error {
	src, ok := b.byName[from.Node]
	if !ok {
		return &BuildError{Code: ErrCodeUnknownPort, Node: from.Node, Message: "no node for wire source " + from.String()}
	}
	out := portIndex(src.outs, from.Port)
	if out < 0 {
		return &BuildError{Code: ErrCodeUnknownPort, Node: from.Node, Message: "no output port " + from.String()}
	}
	dst, ok := b.byName[to.Node]
	if !ok {
		return &BuildError{Code: ErrCodeUnknownPort, Node: to.Node, Message: "no node for wire target " + to.String()}
	}
	in := portIndex(dst.ins, to.Port)
	if in < 0 {
		return &BuildError{Code: ErrCodeUnknownPort, Node: to.Node, Message: "no input port " + to.String()}
	}
	if dst.sources[in] != nil {
		return &BuildError{Code: ErrCodeDuplicate, Node: to.Node, Message: "input " + to.String() + " already connected"}
	}

	ok1, ok2 := src.outs[out].Kind, dst.ins[in].Kind
	if ok1 != ir.KindInvalid && ok2 != ir.KindInvalid && ok1 != ok2 {
		return &BuildError{
			Code:    ErrCodeKindMismatch,
			Node:    to.Node,
			Message: fmt.Sprintf("%s carries %s but %s takes %s", from, ok1, to, ok2),
		}
	}

	dst.sources[in] = &outRef{node: src, port: out}
	return nil
}

func portIndex(ports []PortSpec, name string) int {
	for i, p := range ports {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Declare adds a netcomm channel to the net's bus.
func (b *Builder) Declare(cfg netcomm.ChannelConfig) (*netcomm.Channel, error) {
	return b.bus.Declare(cfg)
}

// Build validates the net and returns it ready to step.
//
// Checks, in order: the period, unconnected required inputs, the kinds of
// generic ports, every primitive's CheckParameters (in insertion order), and
// the schedule.
func (b *Builder) Build() (*Net, error) {
	if b.built {
		return nil, &BuildError{Code: ErrCodeDuplicate, Message: "builder already built net " + b.name}
	}
	b.built = true

	if _, ok := PeriodDuration(b.period); !ok {
		return nil, &BuildError{Code: ErrCodeInvalidParameter, Message: fmt.Sprintf("period must be at least 1ns and finite, got %g", b.period)}
	}

	for _, n := range b.nodes {
		for i, src := range n.sources {
			if src == nil && !n.ins[i].Optional {
				return nil, &BuildError{
					Code:    ErrCodeUnconnected,
					Node:    n.name,
					Message: fmt.Sprintf("input %s.%s is not connected", n.name, n.ins[i].Name),
				}
			}
		}
	}

	if err := inferKinds(b.nodes); err != nil {
		return nil, err
	}

	for _, n := range b.nodes {
		env := &Env{b: b, node: n.name}
		if err := n.prim.CheckParameters(env); err != nil {
			if BuildCode(err) != "" {
				return nil, err
			}
			return nil, &BuildError{Code: ErrCodeInvalidParameter, Node: n.name, Message: n.prim.Kind() + " parameters", Err: err}
		}
	}

	order, err := schedule(b.nodes)
	if err != nil {
		return nil, err
	}

	net := newNet(b, order)
	b.logger.Info("net built",
		"net", net.name,
		"id", net.id,
		"nodes", len(net.nodes),
		"period", b.period,
	)
	return net, nil
}
