package store

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/prim"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func quietOptions(ids ...string) []engine.Option {
	return []engine.Option{
		engine.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		engine.WithIDGenerator(engine.NewFixedGenerator(ids...)),
	}
}

func mustRef(s string) ir.PortRef {
	r, err := ir.ParsePortRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ratioSpec divides a counter by the in channel "ratio.den" (default 1) and
// publishes the quotient on "ratio.out". Writing 0 faults the net.
func ratioSpec() ir.NetSpec {
	return ir.NetSpec{
		Name:   "ratio",
		Period: 0.01,
		Nodes: []ir.NodeSpec{
			{Name: "tick", Kind: prim.KindCounter},
			{Name: "quot", Kind: "div", Type: ir.KindInt},
		},
		Wires: []ir.WireSpec{
			{From: mustRef("tick.out"), To: mustRef("quot.a")},
		},
		Channels: []ir.ChannelSpec{
			{Key: "ratio.den", Direction: ir.DirectionIn, Kind: ir.KindInt, Default: ir.Int(1), Port: mustRef("quot.b")},
			{Key: "ratio.out", Direction: ir.DirectionOut, Kind: ir.KindInt, Port: mustRef("quot.out")},
		},
	}
}

// recordRatio runs ratioSpec live against s:
//
//	cycles 0-2: den 1, out 0 1 2
//	cycles 3-4: den 2, out 1 2
//	cycle 5:    den 0, fault
func recordRatio(t *testing.T, s *Store, id string) Run {
	t.Helper()
	ctx := context.Background()
	spec := ratioSpec()

	net, err := prim.Assemble(spec, nil, quietOptions(id)...)
	if err != nil {
		t.Fatalf("Assemble() failed: %v", err)
	}
	run, err := NewRun(net, spec)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	rec, err := s.Recorder(ctx, run)
	if err != nil {
		t.Fatalf("Recorder() failed: %v", err)
	}
	net.Bus().SetRecorder(rec)

	den, err := net.Bus().Lookup("ratio.den")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if err := net.StepN(3); err != nil {
		t.Fatalf("StepN(3) failed: %v", err)
	}
	if err := den.Set(ir.Int(2)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := net.StepN(2); err != nil {
		t.Fatalf("StepN(2) failed: %v", err)
	}
	if err := den.Set(ir.Int(0)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := net.Step(); !engine.IsFault(err) {
		t.Fatalf("Step() = %v, want fault", err)
	}
	if err := s.WriteFault(ctx, run.ID, net.Faulted()); err != nil {
		t.Fatalf("WriteFault() failed: %v", err)
	}
	return run
}
