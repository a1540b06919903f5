package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rcore/internal/ir"
)

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, net, digest, period, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Net, &run.Digest, &run.Period, &run.EngineVersion, &run.IRVersion)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run, ordered by net name then ID.
// Returns an empty slice (not nil) when nothing is recorded.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, net, digest, period, engine_version, ir_version
		FROM runs
		ORDER BY net COLLATE BINARY ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Net, &run.Digest, &run.Period, &run.EngineVersion, &run.IRVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadUpdates returns the updates of a run, ordered by cycle then seq. An
// empty dir returns both directions.
// Returns an empty slice (not nil) if the run recorded nothing.
func (s *Store) ReadUpdates(ctx context.Context, runID string, dir ir.Direction) ([]Update, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, cycle, key, direction, kind, value
		FROM updates
		WHERE run_id = ? AND (? = '' OR direction = ?)
		ORDER BY cycle ASC, seq ASC
	`, runID, string(dir), string(dir))
	if err != nil {
		return nil, fmt.Errorf("read updates: %w", err)
	}
	defer rows.Close()

	updates := []Update{}
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}
	return updates, nil
}

// ReadChannel returns the updates of one channel of a run, ordered by cycle.
func (s *Store) ReadChannel(ctx context.Context, runID, key string) ([]Update, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, cycle, key, direction, kind, value
		FROM updates
		WHERE run_id = ? AND key = ?
		ORDER BY cycle ASC, seq ASC
	`, runID, key)
	if err != nil {
		return nil, fmt.Errorf("read channel %s: %w", key, err)
	}
	defer rows.Close()

	updates := []Update{}
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel %s: %w", key, err)
	}
	return updates, nil
}

// ReadFault returns the fault of a run, or false if it never faulted.
func (s *Store) ReadFault(ctx context.Context, runID string) (Fault, bool, error) {
	var f Fault
	err := s.db.QueryRowContext(ctx, `
		SELECT cycle, node, message FROM faults WHERE run_id = ?
	`, runID).Scan(&f.Cycle, &f.Node, &f.Message)
	if err == sql.ErrNoRows {
		return Fault{}, false, nil
	}
	if err != nil {
		return Fault{}, false, fmt.Errorf("read fault: %w", err)
	}
	return f, true, nil
}

func scanUpdate(rows *sql.Rows) (Update, error) {
	var (
		u          Update
		dir        string
		kind, text string
	)
	if err := rows.Scan(&u.Seq, &u.Cycle, &u.Key, &dir, &kind, &text); err != nil {
		return Update{}, fmt.Errorf("scan update: %w", err)
	}
	k, err := ir.ParseKind(kind)
	if err != nil {
		return Update{}, fmt.Errorf("update %d: %w", u.Seq, err)
	}
	v, err := ir.ParseValue(k, text)
	if err != nil {
		return Update{}, fmt.Errorf("update %d: %w", u.Seq, err)
	}
	u.Direction = ir.Direction(dir)
	u.Value = v
	return u, nil
}
