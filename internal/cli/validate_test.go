package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/compiler"
)

func TestValidateValidNets(t *testing.T) {
	out, _, err := executeCmd(t, "text", NewValidateCommand, netsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 net(s) valid")
	assert.Contains(t, out, "counter (5 nodes)")
	assert.Contains(t, out, "ratio (2 nodes)")
}

func TestValidateValidNetsJSON(t *testing.T) {
	out, _, err := executeCmd(t, "json", NewValidateCommand, netsDir)
	require.NoError(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Nets, 2)
	assert.Equal(t, "counter", result.Nets[0].Name)
	assert.Empty(t, result.Nets[0].Errors)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, _, err := executeCmd(t, "text", NewValidateCommand, "/nonexistent/nets")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := executeCmd(t, "text", NewValidateCommand, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateUnknownKind(t *testing.T) {
	dir := writeNetsDir(t, `package nets

net: bad: {
	period: 0.01
	nodes: spin: kind: "gyroscope"
}
`)
	out, _, err := executeCmd(t, "json", NewValidateCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	decode(t, out, &result)
	assert.False(t, result.Valid)
	require.Len(t, result.Nets, 1)
	require.NotEmpty(t, result.Nets[0].Errors)
	assert.Equal(t, compiler.ErrUnknownKind, result.Nets[0].Errors[0].Code)
}

func TestValidateReportsLoops(t *testing.T) {
	dir := writeNetsDir(t, `package nets

net: loops: {
	period: 0.01
	nodes: {
		one: {kind: "const", type: "int", params: value: 1}
		acc: {kind: "add", type: "int"}
		hold: {kind: "delay", type: "int"}
		a: {kind: "neg", type: "int"}
		b: {kind: "neg", type: "int"}
	}
	wires: [
		{from: "one.out", to: "acc.a"},
		{from: "acc.out", to: "hold.in"},
		{from: "hold.out", to: "acc.b"},
		{from: "a.out", to: "b.in"},
		{from: "b.out", to: "a.in"},
	]
}
`)
	out, _, err := executeCmd(t, "json", NewValidateCommand, dir)
	require.Error(t, err)

	var result ValidationResult
	decode(t, out, &result)
	require.Len(t, result.Nets, 1)

	levels := map[string]int{}
	for _, l := range result.Nets[0].Loops {
		levels[l.Level]++
	}
	assert.Equal(t, 1, levels[compiler.LevelError], "a <-> b has no delay")
	assert.Equal(t, 1, levels[compiler.LevelInfo], "acc -> hold -> acc goes through a delay")

	codes := []string{}
	for _, e := range result.Nets[0].Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, compiler.ErrUndelayedCycle)
}

func TestValidateCompileErrorsAreCollected(t *testing.T) {
	dir := writeNetsDir(t, `package nets

net: good: {
	period: 0.01
	nodes: tick: kind: "counter"
}
net: broken: {
	period: 0.01
}
`)
	out, _, err := executeCmd(t, "text", NewValidateCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "good (1 nodes)")
	assert.Contains(t, out, ErrCodeNodes)
}
