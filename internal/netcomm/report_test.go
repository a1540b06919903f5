package netcomm

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/roach88/rcore/internal/ir"
)

func TestReporter_Line(t *testing.T) {
	b := NewBus("arm")
	pos, err := b.Declare(ChannelConfig{Key: "pos", Direction: ir.DirectionOut, Kind: ir.KindDouble, Report: true})
	require.NoError(t, err)
	_, err = b.Declare(ChannelConfig{Key: "hidden", Direction: ir.DirectionOut, Kind: ir.KindInt})
	require.NoError(t, err)
	_, err = b.Declare(ChannelConfig{Key: "ok", Direction: ir.DirectionOut, Kind: ir.KindBool, Report: true})
	require.NoError(t, err)

	r := NewReporter(b, rate.Inf, 1, nil)
	assert.Equal(t, "pos=- ok=-", r.Line())

	require.NoError(t, pos.Publish(ir.Double(1), 0))
	assert.Equal(t, "pos=1.0 ok=-", r.Line())
}

func TestReporter_EmitIsRateLimited(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	b := NewBus("arm")
	c, err := b.Declare(ChannelConfig{Key: "n", Direction: ir.DirectionOut, Kind: ir.KindInt, Report: true})
	require.NoError(t, err)
	require.NoError(t, c.Publish(ir.Int(1), 0))

	// One token, refilled once per hour: only the first emit gets through
	r := NewReporter(b, rate.Limit(1.0/3600), 1, logger)
	assert.True(t, r.Emit(0))
	assert.False(t, r.Emit(1))
	assert.False(t, r.Emit(2))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("msg=report")))
	assert.Contains(t, buf.String(), `line="n=1"`)
}
