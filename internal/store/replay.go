package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
	"github.com/roach88/rcore/internal/prim"
)

// ErrDigestMismatch is returned by Replay when the description no longer
// hashes to the digest the run was recorded with.
var ErrDigestMismatch = errors.New("net changed since the run was recorded")

// Diff is one out update on which a replay disagrees with its recording.
// A nil side means that side has no update for the key in that cycle.
type Diff struct {
	Cycle    int64
	Key      string
	Recorded ir.Value
	Replayed ir.Value
}

func (d Diff) String() string {
	return fmt.Sprintf("cycle %d %s: recorded %s, replayed %s",
		d.Cycle, d.Key, showValue(d.Recorded), showValue(d.Replayed))
}

func showValue(v ir.Value) string {
	if v == nil {
		return "nothing"
	}
	return ir.FormatValue(v)
}

// ReplayResult is the outcome of a replay.
type ReplayResult struct {
	Run    Run
	Cycles int64

	Diffs []Diff

	// RecordedFault and Fault are the run's recorded fault and the fault
	// hit while replaying; nil when there is none.
	RecordedFault *Fault
	Fault         *engine.FaultError
}

// Match reports whether the replay reproduced the recording: the same out
// updates and the same fault, if any.
func (r ReplayResult) Match() bool {
	if len(r.Diffs) > 0 {
		return false
	}
	switch {
	case r.RecordedFault == nil && r.Fault == nil:
		return true
	case r.RecordedFault == nil || r.Fault == nil:
		return false
	default:
		return r.RecordedFault.Cycle == r.Fault.Cycle && r.RecordedFault.Node == r.Fault.Node
	}
}

type cycleKey struct {
	cycle int64
	key   string
}

// Replay recomputes a recorded run.
//
// A net is assembled from spec, which must have the digest the run was
// recorded with. Before each cycle c, the in-updates recorded for c are
// written to their channels, so they apply in c exactly as they did live.
// The net steps through the last recorded cycle (or the recorded fault) and
// every out update it publishes is compared with the recording.
//
// Options are passed to the assembler; the replayed net is never recorded.
func (s *Store) Replay(ctx context.Context, runID string, spec ir.NetSpec, reg *prim.Registry, opts ...engine.Option) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}
	digest, err := spec.Digest()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", runID, err)
	}
	if digest != run.Digest {
		return ReplayResult{}, fmt.Errorf("replay %s: net %q: %w (digest %s, recorded %s)",
			runID, spec.Name, ErrDigestMismatch, digest, run.Digest)
	}

	ins, err := s.ReadUpdates(ctx, runID, ir.DirectionIn)
	if err != nil {
		return ReplayResult{}, err
	}
	outs, err := s.ReadUpdates(ctx, runID, ir.DirectionOut)
	if err != nil {
		return ReplayResult{}, err
	}
	recordedFault, faulted, err := s.ReadFault(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}

	result := ReplayResult{Run: run}
	last := int64(-1)
	for _, u := range ins {
		last = max(last, u.Cycle)
	}
	for _, u := range outs {
		last = max(last, u.Cycle)
	}
	if faulted {
		result.RecordedFault = &recordedFault
		last = max(last, recordedFault.Cycle)
	}

	net, err := prim.Assemble(spec, reg, opts...)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", runID, err)
	}
	defer net.Bus().Close()

	replayed := make(map[cycleKey]ir.Value)
	for _, ch := range net.Bus().Channels() {
		if ch.Direction() != ir.DirectionOut {
			continue
		}
		cancel := ch.Subscribe(func(u netcomm.Update) {
			replayed[cycleKey{u.Cycle, u.Key}] = u.Value
		})
		defer cancel()
	}

	next := 0
	for c := int64(0); c <= last; c++ {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, err
		}
		for ; next < len(ins) && ins[next].Cycle == c; next++ {
			u := ins[next]
			ch, err := net.Bus().Lookup(u.Key)
			if err != nil {
				return ReplayResult{}, fmt.Errorf("replay %s: %w", runID, err)
			}
			if err := ch.Set(u.Value); err != nil {
				return ReplayResult{}, fmt.Errorf("replay %s: %w", runID, err)
			}
		}
		result.Cycles++
		if err := net.Step(); err != nil {
			if !engine.IsFault(err) {
				return ReplayResult{}, err
			}
			result.Fault = net.Faulted()
			break
		}
	}

	recorded := make(map[cycleKey]ir.Value, len(outs))
	for _, u := range outs {
		recorded[cycleKey{u.Cycle, u.Key}] = u.Value
	}
	for k, want := range recorded {
		if got, ok := replayed[k]; !ok || !ir.Equal(got, want) {
			result.Diffs = append(result.Diffs, Diff{Cycle: k.cycle, Key: k.key, Recorded: want, Replayed: got})
		}
	}
	for k, got := range replayed {
		if _, ok := recorded[k]; !ok {
			result.Diffs = append(result.Diffs, Diff{Cycle: k.cycle, Key: k.key, Replayed: got})
		}
	}
	sort.Slice(result.Diffs, func(i, j int) bool {
		a, b := result.Diffs[i], result.Diffs[j]
		if a.Cycle != b.Cycle {
			return a.Cycle < b.Cycle
		}
		return a.Key < b.Key
	})
	return result, nil
}
