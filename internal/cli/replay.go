package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rcore/internal/compiler"
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/prim"
	"github.com/roach88/rcore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// RunReplay is the replay outcome of one recorded run.
type RunReplay struct {
	Run           string        `json:"run"`
	Net           string        `json:"net"`
	Cycles        int64         `json:"cycles"`
	Match         bool          `json:"match"`
	Diffs         []string      `json:"diffs,omitempty"`
	RecordedFault *FaultSummary `json:"recorded_fault,omitempty"`
	Fault         *FaultSummary `json:"fault,omitempty"`
	Error         string        `json:"error,omitempty"` // set when the run could not be replayed
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Runs     []RunReplay `json:"runs"`
	AllMatch bool        `json:"all_match"`
}

// String renders the text form.
func (r ReplayReport) String() string {
	var sb strings.Builder
	for i, run := range r.Runs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch {
		case run.Error != "":
			fmt.Fprintf(&sb, "✗ %s (%s): %s", run.Run, run.Net, run.Error)
		case run.Match:
			fmt.Fprintf(&sb, "✓ %s (%s): %d cycle(s) reproduced", run.Run, run.Net, run.Cycles)
		default:
			fmt.Fprintf(&sb, "✗ %s (%s): diverged after %d cycle(s)", run.Run, run.Net, run.Cycles)
		}
		for _, d := range run.Diffs {
			fmt.Fprintf(&sb, "\n    %s", d)
		}
		if run.RecordedFault != nil {
			fmt.Fprintf(&sb, "\n    recorded fault: cycle %d %s: %s", run.RecordedFault.Cycle, run.RecordedFault.Node, run.RecordedFault.Message)
		}
		if run.Fault != nil && !run.Match {
			fmt.Fprintf(&sb, "\n    replayed fault: cycle %d %s: %s", run.Fault.Cycle, run.Fault.Node, run.Fault.Message)
		}
	}
	if len(r.Runs) == 0 {
		sb.WriteString("No runs recorded")
	}
	return sb.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Replay recorded runs and verify determinism",
		Long: `Recompute recorded runs from their in-channel updates and compare
the out updates with the recording.

Each run is replayed against the net of the same name in specs-dir. The
description must be unchanged: its digest is checked first.

Exit codes:
  0 - Every run was reproduced
  1 - A run diverged or could not be replayed
  2 - Command error (database not found, etc.)

Examples:
  rcore replay ./nets --db ./runs.db
  rcore replay ./nets --db ./runs.db --run 0190f0c4-...
  rcore replay ./nets --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay this run only")

	return cmd
}

func runReplay(opts *ReplayOptions, specsDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadNets(specsDir, LoadModeFailFast, opts.cfg().DefaultPeriod)
	if len(loadErrors) > 0 {
		return formatter.Fail(ExitCommandError, loadErrorCode(loadErrors[0]), loadErrors[0].Error(), nil)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	// Replayed nets never log their own lifecycle.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prim.NewRegistry()

	report := ReplayReport{Runs: make([]RunReplay, 0, len(runs)), AllMatch: true}
	for _, run := range runs {
		rr := RunReplay{Run: run.ID, Net: run.Net}
		spec, ok := compiler.Find(loadResult.Nets, run.Net)
		if !ok {
			rr.Error = fmt.Sprintf("net %q not found in %s", run.Net, specsDir)
			report.AllMatch = false
			report.Runs = append(report.Runs, rr)
			continue
		}

		formatter.VerboseLog("Replaying run %s of net %s", run.ID, run.Net)
		result, err := st.Replay(ctx, run.ID, spec, reg,
			engine.WithLogger(quiet),
			engine.WithIDGenerator(engine.NewFixedGenerator(run.ID)),
		)
		switch {
		case errors.Is(err, store.ErrDigestMismatch):
			rr.Error = err.Error()
		case err != nil:
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		default:
			rr.Cycles = result.Cycles
			rr.Match = result.Match()
			for _, d := range result.Diffs {
				rr.Diffs = append(rr.Diffs, d.String())
			}
			if f := result.RecordedFault; f != nil {
				rr.RecordedFault = &FaultSummary{Cycle: f.Cycle, Node: f.Node, Message: f.Message}
			}
			if f := result.Fault; f != nil {
				rr.Fault = &FaultSummary{Cycle: f.Cycle, Node: f.Node, Message: f.Message}
			}
		}
		if !rr.Match {
			report.AllMatch = false
		}
		report.Runs = append(report.Runs, rr)
	}

	if err := formatter.Success(report); err != nil {
		return err
	}
	if !report.AllMatch {
		return NewExitError(ExitFailure, "replay diverged from the recording")
	}
	return nil
}
