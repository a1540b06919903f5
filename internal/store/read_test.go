package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

func TestRecord_Run(t *testing.T) {
	s := createTestStore(t)
	run := recordRatio(t, s, "run-1")

	got, err := s.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Equal(t, "ratio", got.Net)
	assert.Equal(t, ir.EngineVersion, got.EngineVersion)
	assert.Equal(t, ir.IRVersion, got.IRVersion)

	digest, err := ratioSpec().Digest()
	require.NoError(t, err)
	assert.Equal(t, digest, got.Digest)
}

func TestRecord_Updates(t *testing.T) {
	s := createTestStore(t)
	recordRatio(t, s, "run-1")
	ctx := context.Background()

	outs, err := s.ReadUpdates(ctx, "run-1", ir.DirectionOut)
	require.NoError(t, err)
	require.Len(t, outs, 5)
	for i, want := range []int64{0, 1, 2, 1, 2} {
		assert.Equal(t, int64(i), outs[i].Cycle)
		assert.Equal(t, "ratio.out", outs[i].Key)
		assert.Equal(t, ir.Int(want), outs[i].Value)
	}

	// Host writes are stamped with the cycle that applied them
	ins, err := s.ReadUpdates(ctx, "run-1", ir.DirectionIn)
	require.NoError(t, err)
	require.Len(t, ins, 2)
	assert.Equal(t, int64(3), ins[0].Cycle)
	assert.Equal(t, ir.Int(2), ins[0].Value)
	assert.Equal(t, int64(5), ins[1].Cycle)
	assert.Equal(t, ir.Int(0), ins[1].Value)

	all, err := s.ReadUpdates(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Cycle, all[i].Cycle)
	}
}

func TestRecord_Fault(t *testing.T) {
	s := createTestStore(t)
	recordRatio(t, s, "run-1")

	f, ok, err := s.ReadFault(context.Background(), "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), f.Cycle)
	assert.Equal(t, "quot", f.Node)
	assert.Contains(t, f.Message, "division by zero")
}

func TestReadFault_None(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, Run{ID: "r", Net: "n", Digest: "d", Period: 0.01}))

	_, ok, err := s.ReadFault(ctx, "r")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRuns_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, r := range []Run{
		{ID: "b", Net: "beta", Digest: "d", Period: 0.01},
		{ID: "z", Net: "alpha", Digest: "d", Period: 0.01},
		{ID: "a", Net: "alpha", Digest: "d", Period: 0.01},
	} {
		require.NoError(t, s.WriteRun(ctx, r))
	}
	// Idempotent
	require.NoError(t, s.WriteRun(ctx, Run{ID: "a", Net: "alpha", Digest: "other"}))

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"a", "z", "b"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, "d", runs[0].Digest)
}

func TestWriteUpdate_SameCycleOverwrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, Run{ID: "r", Net: "n", Digest: "d", Period: 0.01}))

	require.NoError(t, s.WriteUpdate(ctx, "r", ir.DirectionIn, netcomm.Update{Key: "k", Value: ir.Int(1), Cycle: 4}))
	require.NoError(t, s.WriteUpdate(ctx, "r", ir.DirectionIn, netcomm.Update{Key: "k", Value: ir.Int(9), Cycle: 4}))

	got, err := s.ReadChannel(ctx, "r", "k")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ir.Int(9), got[0].Value)
}

func TestWriteUpdate_RoundTripsKinds(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, Run{ID: "r", Net: "n", Digest: "d", Period: 0.01}))

	values := []ir.Value{
		ir.Bool(true),
		ir.Int(-7),
		ir.Double(0.1),
		ir.Array{ir.Double(1), ir.Double(2.5)},
	}
	for i, v := range values {
		require.NoError(t, s.WriteUpdate(ctx, "r", ir.DirectionOut, netcomm.Update{Key: "k", Value: v, Cycle: int64(i)}))
	}

	got, err := s.ReadChannel(ctx, "r", "k")
	require.NoError(t, err)
	require.Len(t, got, len(values))
	for i, v := range values {
		assert.True(t, ir.Equal(v, got[i].Value), "cycle %d: %v != %v", i, v, got[i].Value)
	}
}

func TestWriteUpdate_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WriteUpdate(ctx, "r", ir.DirectionOut, netcomm.Update{Key: "k"})
	assert.ErrorContains(t, err, "no value")

	// Unknown run violates the foreign key
	err = s.WriteUpdate(ctx, "missing", ir.DirectionOut, netcomm.Update{Key: "k", Value: ir.Int(1)})
	assert.Error(t, err)
}
