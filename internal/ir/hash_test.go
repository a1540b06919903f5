package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeDigest_Deterministic(t *testing.T) {
	d1, err := NodeDigest("add", "int", []string{"x", "y"}, nil)
	require.NoError(t, err)
	d2, err := NodeDigest("add", "int", []string{"x", "y"}, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "nil and empty attrs are the same identity")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestNodeDigest_ChangesWithInput(t *testing.T) {
	base := MustNodeDigest("add", "int", []string{"x", "y"}, nil)

	assert.NotEqual(t, base, MustNodeDigest("sub", "int", []string{"x", "y"}, nil), "kind")
	assert.NotEqual(t, base, MustNodeDigest("add", "double", []string{"x", "y"}, nil), "type")
	assert.NotEqual(t, base, MustNodeDigest("add", "int", []string{"y", "x"}, nil), "operand order")
	assert.NotEqual(t, base, MustNodeDigest("add", "int", []string{"x", "y"}, map[string]any{"k": 1}), "attrs")
}

func TestNetSpecDigest(t *testing.T) {
	spec := NetSpec{
		Name:   "demo",
		Period: 0.01,
		Nodes: []NodeSpec{
			{Name: "one", Kind: "const", Params: map[string]Value{"value": Int(1)}},
		},
		Channels: []ChannelSpec{
			{Key: "one", Direction: DirectionOut, Kind: KindInt, Port: PortRef{Node: "one", Port: "out"}},
		},
	}
	d1, err := spec.Digest()
	require.NoError(t, err)

	spec.Period = 0.02
	d2, err := spec.Digest()
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestParsePortRef(t *testing.T) {
	ref, err := ParsePortRef("arm.joint1.out")
	require.NoError(t, err)
	assert.Equal(t, PortRef{Node: "arm.joint1", Port: "out"}, ref)
	assert.Equal(t, "arm.joint1.out", ref.String())

	for _, bad := range []string{"", "node", ".port", "node."} {
		_, err := ParsePortRef(bad)
		assert.Error(t, err, bad)
	}
}
