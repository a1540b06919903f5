package compiler

import (
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
)

func compileNetString(t *testing.T, src, name string, opts Options) (*ir.NetSpec, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileNet(v.LookupPath(cue.ParsePath("net."+name)), opts)
}

func TestCompileNet_Full(t *testing.T) {
	spec, err := compileNetString(t, `
net: arm: {
	period: 0.005
	nodes: {
		target: {kind: "const", type: "double", params: value: 0.25}
		tick: {kind: "counter", params: {start: 10, step: 2}}
		prev: {kind: "delay", type: "int", params: initial: -1}
		joints: {kind: "const", type: "array", params: value: [1, 2.5, true]}
	}
	wires: [{from: "tick.out", to: "prev.in"}]
	channels: {
		"arm.setpoint": {direction: "in", kind: "double", default: 0}
		"arm.prev": {direction: "out", kind: "int", port: "prev.out", report: true}
	}
}
`, "arm", Options{})
	require.NoError(t, err)

	assert.Equal(t, "arm", spec.Name)
	assert.Equal(t, 0.005, spec.Period)

	require.Len(t, spec.Nodes, 4)
	assert.Equal(t, []string{"target", "tick", "prev", "joints"},
		[]string{spec.Nodes[0].Name, spec.Nodes[1].Name, spec.Nodes[2].Name, spec.Nodes[3].Name},
		"nodes keep source order")

	assert.Equal(t, ir.KindDouble, spec.Nodes[0].Type)
	assert.Equal(t, ir.Double(0.25), spec.Nodes[0].Params["value"])
	assert.Equal(t, ir.KindInvalid, spec.Nodes[1].Type)
	assert.Equal(t, ir.Int(10), spec.Nodes[1].Params["start"])
	assert.Equal(t, ir.Int(2), spec.Nodes[1].Params["step"])
	assert.Equal(t, ir.Int(-1), spec.Nodes[2].Params["initial"])
	assert.Equal(t, ir.Array{ir.Int(1), ir.Double(2.5), ir.Bool(true)}, spec.Nodes[3].Params["value"])

	require.Len(t, spec.Wires, 1)
	assert.Equal(t, ir.PortRef{Node: "tick", Port: "out"}, spec.Wires[0].From)
	assert.Equal(t, ir.PortRef{Node: "prev", Port: "in"}, spec.Wires[0].To)

	require.Len(t, spec.Channels, 2)
	in := spec.Channels[0]
	assert.Equal(t, "arm.setpoint", in.Key)
	assert.Equal(t, ir.DirectionIn, in.Direction)
	assert.Equal(t, ir.KindDouble, in.Kind)
	assert.Equal(t, ir.Int(0), in.Default, "defaults keep their literal kind; the bus coerces")
	assert.Equal(t, ir.PortRef{}, in.Port)
	assert.False(t, in.Report)

	out := spec.Channels[1]
	assert.Equal(t, "arm.prev", out.Key)
	assert.Equal(t, ir.PortRef{Node: "prev", Port: "out"}, out.Port)
	assert.True(t, out.Report)
}

func TestCompileNet_DefaultPeriod(t *testing.T) {
	spec, err := compileNetString(t, `net: a: nodes: x: kind: "counter"`, "a", Options{DefaultPeriod: 0.02})
	require.NoError(t, err)
	assert.Equal(t, 0.02, spec.Period)
	assert.Empty(t, spec.Wires)
	assert.Empty(t, spec.Channels)
}

func TestCompileNet_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing nodes", `net: a: period: 0.01`, "nodes"},
		{"missing kind", `net: a: nodes: x: type: "int"`, "nodes.x.kind"},
		{"bad type", `net: a: nodes: x: {kind: "const", type: "float"}`, "nodes.x.type"},
		{"bad wire ref", `net: a: {nodes: x: kind: "counter", wires: [{from: "x", to: "x.in"}]}`, "wires[0].from"},
		{"missing wire end", `net: a: {nodes: x: kind: "counter", wires: [{from: "x.out"}]}`, "wires[0].to"},
		{"string param", `net: a: nodes: x: {kind: "const", params: value: "hi"}`, "nodes.x.params.value"},
		{"bad channel kind", `net: a: {nodes: x: kind: "counter", channels: c: {direction: "out", kind: "text"}}`, "channels.c.kind"},
		{"period not number", `net: a: {period: "fast", nodes: x: kind: "counter"}`, "period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileNetString(t, tt.src, "a", Options{})
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "nodes", Message: "nodes are required"}
	assert.Equal(t, "nodes: nodes are required", err.Error())
}

func TestCompileAll_CollectsErrors(t *testing.T) {
	v := cuecontext.New().CompileString(`
net: good: {period: 0.01, nodes: x: kind: "counter"}
net: bad: {period: 0.01}
net: other: {period: 0.02, nodes: y: kind: "counter"}
`)
	require.NoError(t, v.Err())

	nets, errs := CompileAll(v, Options{})
	require.Len(t, nets, 2)
	assert.Equal(t, "good", nets[0].Name)
	assert.Equal(t, "other", nets[1].Name)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "net.bad")
}

func TestCompileAll_NoNets(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	nets, errs := CompileAll(v, Options{})
	assert.Empty(t, nets)
	assert.Empty(t, errs)
}

func TestCompileFiles(t *testing.T) {
	nets, err := CompileFiles([]string{filepath.Join("testdata", "counter.cue")}, Options{})
	require.NoError(t, err)
	require.Len(t, nets, 1)

	spec, ok := Find(nets, "counter")
	require.True(t, ok)
	assert.Len(t, spec.Nodes, 5)
	assert.Len(t, spec.Wires, 4)
	assert.Len(t, spec.Channels, 3)

	_, ok = Find(nets, "missing")
	assert.False(t, ok)
}

func TestCompileFiles_DuplicateNet(t *testing.T) {
	path := filepath.Join("testdata", "counter.cue")
	_, err := CompileFiles([]string{path, path}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared in both")
}

func TestCompileFiles_MissingFile(t *testing.T) {
	_, err := CompileFiles([]string{filepath.Join("testdata", "nope.cue")}, Options{})
	require.Error(t, err)
}
