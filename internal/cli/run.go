package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/rcore/internal/compiler"
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/metric"
	"github.com/roach88/rcore/internal/netcomm"
	"github.com/roach88/rcore/internal/prim"
	"github.com/roach88/rcore/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Nets        []string // empty runs every net
	Database    string
	MetricsAddr string
	Cycles      int      // >0 steps this many cycles without the real-time clock
	Sets        []string // key=value writes applied before the first cycle
}

// NetSummary describes one net after a run.
type NetSummary struct {
	Name     string        `json:"name"`
	ID       string        `json:"id"`
	Cycles   int64         `json:"cycles"`
	Overruns int64         `json:"overruns"`
	Fault    *FaultSummary `json:"fault,omitempty"`
}

// FaultSummary is the fault that stopped a net.
type FaultSummary struct {
	Cycle   int64  `json:"cycle"`
	Node    string `json:"node"`
	Message string `json:"message"`
}

// RunSummary is the output of the run command.
type RunSummary struct {
	Database string       `json:"database,omitempty"`
	Nets     []NetSummary `json:"nets"`
}

// String renders the text form.
func (s RunSummary) String() string {
	var sb strings.Builder
	for i, n := range s.Nets {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if n.Fault != nil {
			fmt.Fprintf(&sb, "✗ %s (%s) faulted at cycle %d in %s: %s",
				n.Name, n.ID, n.Fault.Cycle, n.Fault.Node, n.Fault.Message)
			continue
		}
		fmt.Fprintf(&sb, "✓ %s (%s) ran %d cycle(s), %d overrun(s)", n.Name, n.ID, n.Cycles, n.Overruns)
	}
	if s.Database != "" {
		fmt.Fprintf(&sb, "\nRecorded to %s", s.Database)
	}
	return sb.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <specs-dir>",
		Short: "Assemble and run nets",
		Long: `Assemble the nets of a CUE package and run them.

Without --cycles each net runs on its own real-time clock until Ctrl-C
or until a net faults; a fault stops every net. With --cycles the nets
are stepped that many times back to back, which is how runs are
recorded for replay.

With --db every applied channel update is recorded to SQLite.

Examples:
  rcore run ./nets
  rcore run ./nets --net ratio --cycles 100 --db ./runs.db
  rcore run ./nets --set ratio.den=4 --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNets(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Nets, "net", nil, "net to run (repeatable, default all)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record to this SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().IntVar(&opts.Cycles, "cycles", 0, "step this many cycles, then stop")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "write key=value to an in channel before the first cycle")

	return cmd
}

// runningNet is one assembled net and where it records.
type runningNet struct {
	net *engine.Net
	run store.Run
}

func runNets(opts *RunOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg := opts.cfg()
	logger := opts.logger(cmd.ErrOrStderr())

	if opts.Cycles < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--cycles must not be negative", nil)
	}
	dbPath := cfg.Database
	if cmd.Flags().Changed("db") {
		dbPath = opts.Database
	}
	metricsAddr := cfg.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		metricsAddr = opts.MetricsAddr
	}

	specs, err := pickNets(opts, specsDir)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), err.Error(), nil)
	}

	var st *store.Store
	if dbPath != "" {
		logger.Info("opening database", "path", dbPath)
		st, err = store.Open(dbPath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	collector := metric.NewCollector()
	nets := make([]*runningNet, 0, len(specs))
	for _, spec := range specs {
		rn, err := assembleNet(ctx, opts, spec, st, collector, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeAssemble, err.Error(), nil)
		}
		defer rn.net.Bus().Close()
		nets = append(nets, rn)
	}

	if err := applySets(nets, opts.Sets); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runErr := execute(ctx, cancel, opts.Cycles, nets, collector, metricsAddr, logger)
	stopped := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !engine.IsFault(runErr) && !stopped {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, runErr.Error(), nil)
	}

	summary := RunSummary{Database: dbPath, Nets: make([]NetSummary, 0, len(nets))}
	faulted := false
	for _, rn := range nets {
		ns := NetSummary{
			Name:     rn.net.Name(),
			ID:       rn.net.ID(),
			Cycles:   rn.net.Clock().Current(),
			Overruns: rn.net.Overruns(),
		}
		if fe := rn.net.Faulted(); fe != nil {
			faulted = true
			ns.Fault = &FaultSummary{Cycle: fe.Cycle, Node: fe.Node, Message: fe.Message}
			if st != nil {
				if err := st.WriteFault(context.Background(), rn.run.ID, fe); err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
				}
			}
		}
		summary.Nets = append(summary.Nets, ns)
	}

	if err := formatter.Success(summary); err != nil {
		return err
	}
	if faulted {
		return NewExitError(ExitFailure, "net faulted")
	}
	return nil
}

// pickNets loads, selects and validates the nets to run.
func pickNets(opts *RunOptions, specsDir string) ([]ir.NetSpec, error) {
	loadResult, loadErrors := LoadNets(specsDir, LoadModeFailFast, opts.cfg().DefaultPeriod)
	if len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	specs := loadResult.Nets
	if len(opts.Nets) > 0 {
		specs = make([]ir.NetSpec, 0, len(opts.Nets))
		for _, name := range opts.Nets {
			spec, err := selectNet(loadResult.Nets, name)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}

	reg := prim.NewRegistry()
	for _, spec := range specs {
		if errs := compiler.Validate(spec, reg); len(errs) > 0 {
			return nil, fmt.Errorf("net %s is invalid: %w", spec.Name, errs[0])
		}
	}
	return specs, nil
}

func assembleNet(ctx context.Context, opts *RunOptions, spec ir.NetSpec, st *store.Store, collector *metric.Collector, logger *slog.Logger) (*runningNet, error) {
	cfg := opts.cfg()
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(collector),
	}
	if cfg.ReportRate > 0 {
		engineOpts = append(engineOpts, engine.WithReport(rate.Limit(cfg.ReportRate), cfg.ReportBurst))
	}

	net, err := prim.Assemble(spec, prim.NewRegistry(), engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", spec.Name, err)
	}
	rn := &runningNet{net: net}

	recorders := netcomm.MultiRecorder{collector}
	if st != nil {
		rn.run, err = store.NewRun(net, spec)
		if err != nil {
			return nil, err
		}
		rec, err := st.Recorder(ctx, rn.run)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, rec)
	}
	net.Bus().SetRecorder(recorders)

	logger.Debug("net assembled", "net", net.Name(), "id", net.ID(), "order", net.Order())
	return rn, nil
}

// applySets writes key=value pairs to the channel with that key, in
// whichever net declares it. Values are parsed as the channel's kind.
func applySets(nets []*runningNet, sets []string) error {
	for _, set := range sets {
		key, raw, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q: want key=value", set)
		}
		found := false
		for _, rn := range nets {
			ch, ok := rn.net.Bus().Channel(key)
			if !ok {
				continue
			}
			if err := ch.SetString(raw); err != nil {
				return fmt.Errorf("--set %s: %w", key, err)
			}
			found = true
		}
		if !found {
			return fmt.Errorf("--set %s: no net declares this channel", key)
		}
	}
	return nil
}

// execute runs the nets, and the metrics server when addr is set. The
// server stops when the nets do.
func execute(ctx context.Context, cancel context.CancelFunc, cycles int, nets []*runningNet, collector *metric.Collector, addr string, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	if addr != "" {
		g.Go(func() error {
			return collector.Serve(gctx, addr, logger)
		})
	}

	var netErr error
	g.Go(func() error {
		defer cancel()
		if cycles > 0 {
			for _, rn := range nets {
				if err := rn.net.StepN(cycles); err != nil {
					netErr = err
					return nil
				}
			}
			return nil
		}
		all := make([]*engine.Net, len(nets))
		for i, rn := range nets {
			all[i] = rn.net
		}
		netErr = engine.RunAll(gctx, all...)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return netErr
}
