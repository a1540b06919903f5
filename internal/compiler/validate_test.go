package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/prim"
)

func validNet() ir.NetSpec {
	return ir.NetSpec{
		Name:   "arm",
		Period: 0.01,
		Nodes: []ir.NodeSpec{
			{Name: "tick", Kind: "counter"},
			{Name: "prev", Kind: "delay", Type: ir.KindInt},
		},
		Wires: []ir.WireSpec{
			{From: ir.PortRef{Node: "tick", Port: "out"}, To: ir.PortRef{Node: "prev", Port: "in"}},
		},
		Channels: []ir.ChannelSpec{
			{Key: "arm.prev", Direction: ir.DirectionOut, Kind: ir.KindInt, Port: ir.PortRef{Node: "prev", Port: "out"}},
			{Key: "arm.gain", Direction: ir.DirectionIn, Kind: ir.KindDouble, Default: ir.Int(1)},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_ValidNet(t *testing.T) {
	errs := Validate(validNet(), prim.NewRegistry())
	assert.Empty(t, errs)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.NetSpec)
		code   string
	}{
		{"empty name", func(s *ir.NetSpec) { s.Name = "" }, ErrNetNameEmpty},
		{"zero period", func(s *ir.NetSpec) { s.Period = 0 }, ErrPeriodInvalid},
		{"sub-nanosecond period", func(s *ir.NetSpec) { s.Period = 1e-12 }, ErrPeriodInvalid},
		{"no nodes", func(s *ir.NetSpec) { s.Nodes = nil; s.Wires = nil; s.Channels = nil }, ErrNoNodes},
		{"unknown kind", func(s *ir.NetSpec) { s.Nodes[0].Kind = "teleport" }, ErrUnknownKind},
		{"duplicate node", func(s *ir.NetSpec) { s.Nodes[1].Name = "tick" }, ErrDuplicateName},
		{"undeclared wire source", func(s *ir.NetSpec) { s.Wires[0].From.Node = "ghost" }, ErrInvalidPortRef},
		{"input wired twice", func(s *ir.NetSpec) { s.Wires = append(s.Wires, s.Wires[0]) }, ErrInputWiredTwice},
		{"bad direction", func(s *ir.NetSpec) { s.Channels[1].Direction = "sideways" }, ErrInvalidDirection},
		{"duplicate channel", func(s *ir.NetSpec) { s.Channels[1].Key = "arm.prev" }, ErrDuplicateChannel},
		{"missing channel kind", func(s *ir.NetSpec) { s.Channels[1].Kind = ir.KindInvalid }, ErrInvalidKind},
		{"default kind", func(s *ir.NetSpec) { s.Channels[1].Default = ir.Bool(true) }, ErrDefaultKind},
		{"channel port", func(s *ir.NetSpec) { s.Channels[0].Port.Node = "ghost" }, ErrChannelPort},
		{"in channel on wired input", func(s *ir.NetSpec) {
			s.Channels[1].Kind = ir.KindInt
			s.Channels[1].Default = nil
			s.Channels[1].Port = ir.PortRef{Node: "prev", Port: "in"}
		}, ErrInputWiredTwice},
		{"binding name taken", func(s *ir.NetSpec) {
			s.Nodes = append(s.Nodes, ir.NodeSpec{Name: "netcomm_out:arm.prev", Kind: "counter"})
		}, ErrReservedNodeName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validNet()
			tt.mutate(&spec)
			errs := Validate(spec, prim.NewRegistry())
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	spec := validNet()
	spec.Period = -1
	spec.Nodes[0].Kind = "teleport"
	spec.Channels[1].Direction = "up"

	errs := Validate(spec, prim.NewRegistry())
	assert.ElementsMatch(t, []string{ErrPeriodInvalid, ErrUnknownKind, ErrInvalidDirection}, codes(errs))
}

func TestValidate_NilKindsSkipsKindCheck(t *testing.T) {
	spec := validNet()
	spec.Nodes[0].Kind = "teleport"
	assert.Empty(t, Validate(spec, nil))
}

func TestValidate_UndelayedCycle(t *testing.T) {
	spec := ir.NetSpec{
		Name:   "loop",
		Period: 0.01,
		Nodes: []ir.NodeSpec{
			{Name: "a", Kind: "neg", Type: ir.KindInt},
			{Name: "b", Kind: "neg", Type: ir.KindInt},
		},
		Wires: []ir.WireSpec{
			{From: ir.PortRef{Node: "a", Port: "out"}, To: ir.PortRef{Node: "b", Port: "in"}},
			{From: ir.PortRef{Node: "b", Port: "out"}, To: ir.PortRef{Node: "a", Port: "in"}},
		},
	}
	errs := Validate(spec, prim.NewRegistry())
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUndelayedCycle, errs[0].Code)
	assert.Contains(t, errs[0].Message, "a -> b -> a")
}

func TestValidationError_Format(t *testing.T) {
	err := ValidationError{Field: "period", Message: "bad", Code: ErrPeriodInvalid}
	assert.Equal(t, "[E101] period: bad", err.Error())
}
