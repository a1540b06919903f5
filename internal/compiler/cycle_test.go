package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
)

func wire(from, to string) ir.WireSpec {
	f, _ := ir.ParsePortRef(from)
	t, _ := ir.ParsePortRef(to)
	return ir.WireSpec{From: f, To: t}
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(ir.NetSpec{}))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{
			{Name: "x", Kind: "counter"},
			{Name: "y", Kind: "neg"},
			{Name: "z", Kind: "add"},
		},
		Wires: []ir.WireSpec{
			wire("x.out", "y.in"),
			wire("x.out", "z.a"),
			wire("y.out", "z.b"),
		},
	}
	assert.Empty(t, AnalyzeCycles(spec), "DAG should produce no reports")
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{{Name: "n", Kind: "neg"}},
		Wires: []ir.WireSpec{wire("n.out", "n.in")},
	}
	reports := AnalyzeCycles(spec)
	require.Len(t, reports, 1)
	assert.Equal(t, LevelError, reports[0].Level)
	assert.Equal(t, []string{"n", "n"}, reports[0].Path)
}

func TestAnalyzeCycles_DelayedSelfLoop(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{{Name: "d", Kind: "delay"}},
		Wires: []ir.WireSpec{wire("d.out", "d.in")},
	}
	reports := AnalyzeCycles(spec)
	require.Len(t, reports, 1)
	assert.Equal(t, LevelInfo, reports[0].Level)
}

func TestAnalyzeCycles_UndelayedLoop(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{
			{Name: "a", Kind: "neg"},
			{Name: "b", Kind: "neg"},
		},
		Wires: []ir.WireSpec{wire("a.out", "b.in"), wire("b.out", "a.in")},
	}
	reports := AnalyzeCycles(spec)
	require.Len(t, reports, 1)
	assert.Equal(t, LevelError, reports[0].Level)
	assert.Equal(t, []string{"a", "b", "a"}, reports[0].Path)
	assert.Equal(t, "feedback loop without a delay: a -> b -> a", reports[0].Message)
}

// An accumulator: sum = in + delay(sum). The loop is legal.
func TestAnalyzeCycles_DelayBreaksLoop(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{
			{Name: "in", Kind: "counter"},
			{Name: "sum", Kind: "add"},
			{Name: "last", Kind: "delay"},
		},
		Wires: []ir.WireSpec{
			wire("in.out", "sum.a"),
			wire("last.out", "sum.b"),
			wire("sum.out", "last.in"),
		},
	}
	reports := AnalyzeCycles(spec)
	require.Len(t, reports, 1)
	assert.Equal(t, LevelInfo, reports[0].Level)
	assert.Equal(t, []string{"sum", "last", "sum"}, reports[0].Path)
}

func TestAnalyzeCycles_IgnoresUndeclaredNodes(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{{Name: "a", Kind: "neg"}},
		Wires: []ir.WireSpec{wire("ghost.out", "a.in"), wire("a.out", "ghost.in")},
	}
	assert.Empty(t, AnalyzeCycles(spec))
}

func TestAnalyzeCycles_Deterministic(t *testing.T) {
	spec := ir.NetSpec{
		Nodes: []ir.NodeSpec{
			{Name: "a", Kind: "neg"},
			{Name: "b", Kind: "neg"},
			{Name: "c", Kind: "neg"},
			{Name: "d", Kind: "neg"},
		},
		Wires: []ir.WireSpec{
			wire("a.out", "b.in"), wire("b.out", "a.in"),
			wire("c.out", "d.in"), wire("d.out", "c.in"),
		},
	}
	first := AnalyzeCycles(spec)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, AnalyzeCycles(spec))
	}
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Path[0])
	assert.Equal(t, "c", first[1].Path[0])
}
