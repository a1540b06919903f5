package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/queryir"
	"github.com/roach88/rcore/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	RunID     string
	Key       string
	Prefix    string
	Direction string
	From      int64
	To        int64 // -1 leaves the range open
	Latest    bool
	Limit     int
}

// TraceUpdate is one recorded update in the output.
type TraceUpdate struct {
	Seq       int64  `json:"seq"`
	Cycle     int64  `json:"cycle"`
	Key       string `json:"key"`
	Direction string `json:"direction"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
}

// TraceResult holds the trace output.
type TraceResult struct {
	Run     string        `json:"run"`
	Net     string        `json:"net"`
	Updates []TraceUpdate `json:"updates"`
	Fault   *FaultSummary `json:"fault,omitempty"`
}

// String renders the text form.
func (r TraceResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s (%s): %d update(s)", r.Run, r.Net, len(r.Updates))
	for _, u := range r.Updates {
		fmt.Fprintf(&sb, "\n  cycle %-6d %-3s %s = %s", u.Cycle, u.Direction, u.Key, u.Value)
	}
	if r.Fault != nil {
		fmt.Fprintf(&sb, "\n  cycle %-6d fault in %s: %s", r.Fault.Cycle, r.Fault.Node, r.Fault.Message)
	}
	return sb.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded updates of a run",
		Long: `Show the channel updates recorded for a run, in cycle order.

Filters combine: --key or --prefix select channels, --direction selects
in or out updates, --from/--to select a cycle range. --latest shows only
the last update of each channel.

Examples:
  rcore trace --db ./runs.db --run 0190f0c4-...
  rcore trace --db ./runs.db --run 0190f0c4-... --prefix ratio. --direction out
  rcore trace --db ./runs.db --run 0190f0c4-... --from 10 --to 20 --limit 5
  rcore trace --db ./runs.db --run 0190f0c4-... --latest --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Key, "key", "", "only this channel")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only channels whose key starts with this")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "only in or out updates")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "first cycle")
	cmd.Flags().Int64Var(&opts.To, "to", -1, "last cycle (default: open)")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "only the last update of each channel")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "at most this many updates (0 for all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	q, err := opts.query(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
	}

	updates, err := st.Query(ctx, q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}

	result := TraceResult{Run: run.ID, Net: run.Net, Updates: make([]TraceUpdate, 0, len(updates))}
	for _, u := range updates {
		result.Updates = append(result.Updates, TraceUpdate{
			Seq:       u.Seq,
			Cycle:     u.Cycle,
			Key:       u.Key,
			Direction: string(u.Direction),
			Kind:      u.Value.Kind().String(),
			Value:     ir.FormatValue(u.Value),
		})
	}

	fault, faulted, err := st.ReadFault(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if faulted && !opts.Latest {
		result.Fault = &FaultSummary{Cycle: fault.Cycle, Node: fault.Node, Message: fault.Message}
	}

	return formatter.SuccessRun(run.ID, result)
}

// query builds the trace query from the flags and validates it.
func (o *TraceOptions) query(cmd *cobra.Command) (queryir.Query, error) {
	var preds []queryir.Predicate
	if o.Key != "" {
		preds = append(preds, queryir.KeyEquals{Key: o.Key})
	}
	if o.Prefix != "" {
		preds = append(preds, queryir.KeyPrefix{Prefix: o.Prefix})
	}
	if o.Direction != "" {
		preds = append(preds, queryir.DirectionIs{Direction: ir.Direction(o.Direction)})
	}
	if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
		preds = append(preds, queryir.CycleRange{From: o.From, To: o.To})
	}
	filter := queryir.All(preds...)

	var q queryir.Query
	if o.Latest {
		if o.Limit != 0 {
			return nil, fmt.Errorf("--limit does not apply to --latest")
		}
		q = queryir.Latest{Run: o.RunID, Filter: filter}
	} else {
		q = queryir.Updates{Run: o.RunID, Filter: filter, Limit: o.Limit}
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return nil, err
	}
	return q, nil
}

// openExisting opens a database that must already exist; store.Open alone
// would create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}
