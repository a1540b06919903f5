package store

import (
	"context"
	"fmt"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Run identifies one recorded net instance.
type Run struct {
	ID            string
	Net           string
	Digest        string
	Period        float64
	EngineVersion string
	IRVersion     string
}

// NewRun describes a run of net built from spec.
func NewRun(net *engine.Net, spec ir.NetSpec) (Run, error) {
	digest, err := spec.Digest()
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	return Run{
		ID:            net.ID(),
		Net:           net.Name(),
		Digest:        digest,
		Period:        net.Period(),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

// Update is one recorded channel update.
type Update struct {
	Seq       int64
	Cycle     int64
	Key       string
	Direction ir.Direction
	Value     ir.Value
}

// Fault is the recorded fault of a run.
type Fault struct {
	Cycle   int64
	Node    string
	Message string
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, net, digest, period, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Net,
		run.Digest,
		run.Period,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteUpdate appends one channel update to a run.
//
// A channel holds one value per cycle: a second update of the same key,
// direction and cycle (several host writes applied together) replaces the
// first, keeping its seq.
//
// Note: the run must exist (foreign key constraint).
func (s *Store) WriteUpdate(ctx context.Context, runID string, dir ir.Direction, u netcomm.Update) error {
	if u.Value == nil {
		return fmt.Errorf("write update %s: no value", u.Key)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO updates (run_id, cycle, key, direction, kind, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, cycle, key, direction)
		DO UPDATE SET kind = excluded.kind, value = excluded.value
	`,
		runID,
		u.Cycle,
		u.Key,
		string(dir),
		u.Value.Kind().String(),
		ir.FormatValue(u.Value),
	)
	if err != nil {
		return fmt.Errorf("write update %s: %w", u.Key, err)
	}
	return nil
}

// WriteFault records the fault that stopped a run. Only the first fault is
// kept; a net faults at most once.
func (s *Store) WriteFault(ctx context.Context, runID string, fe *engine.FaultError) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faults (run_id, cycle, node, message)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		runID,
		fe.Cycle,
		fe.Node,
		fe.Message,
	)
	if err != nil {
		return fmt.Errorf("write fault: %w", err)
	}
	return nil
}

// Recorder appends the updates of one run. It implements netcomm.Recorder.
type Recorder struct {
	store *Store
	runID string
}

// Recorder returns a recorder for run. The run record is written first.
func (s *Store) Recorder(ctx context.Context, run Run) (*Recorder, error) {
	if err := s.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	return &Recorder{store: s, runID: run.ID}, nil
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// RecordUpdate implements netcomm.Recorder.
func (r *Recorder) RecordUpdate(_ string, dir ir.Direction, u netcomm.Update) error {
	return r.store.WriteUpdate(context.Background(), r.runID, dir, u)
}
