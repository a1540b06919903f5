package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rcore/internal/compiler"
	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
	"github.com/roach88/rcore/internal/prim"
	"github.com/roach88/rcore/internal/queryir"
	"github.com/roach88/rcore/internal/store"
	"github.com/roach88/rcore/internal/testutil"
)

// DefaultPeriod is used for nets whose description has no period.
const DefaultPeriod = 0.01

// Harness is the test execution engine.
// It runs one scenario against a freshly assembled net.
type Harness struct {
	store    *store.Store
	net      *engine.Net
	run      store.Run
	recorder *testutil.MemoryRecorder
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Compile the specs and pick the net
//  2. Validate and assemble it with a fixed instance ID
//  3. Record every applied update (memory for the trace, SQLite for state)
//  4. Execute the steps, stopping at a fault
//  5. Evaluate assertions
//
// An error is returned when the scenario cannot run at all; assertion
// failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	spec, err := loadNet(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	net, err := prim.Assemble(spec, prim.NewRegistry(),
		engine.WithLogger(logger),
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.InstanceID)),
	)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", spec.Name, err)
	}
	defer net.Bus().Close()

	run, err := store.NewRun(net, spec)
	if err != nil {
		return nil, err
	}
	storeRec, err := st.Recorder(ctx, run)
	if err != nil {
		return nil, err
	}
	memRec := testutil.NewMemoryRecorder()
	net.Bus().SetRecorder(netcomm.MultiRecorder{memRec, storeRec})

	h := &Harness{
		store:    st,
		net:      net,
		run:      run,
		recorder: memRec,
		logger:   logger,
	}

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}
	if err := h.collectState(ctx, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func loadNet(scenario *Scenario) (ir.NetSpec, error) {
	nets, err := compiler.CompileFiles(scenario.Specs, compiler.Options{DefaultPeriod: DefaultPeriod})
	if err != nil {
		return ir.NetSpec{}, fmt.Errorf("failed to compile specs: %w", err)
	}

	var spec ir.NetSpec
	switch {
	case scenario.Net != "":
		var ok bool
		if spec, ok = compiler.Find(nets, scenario.Net); !ok {
			return ir.NetSpec{}, fmt.Errorf("net %q not found in specs", scenario.Net)
		}
	case len(nets) == 1:
		spec = nets[0]
	default:
		return ir.NetSpec{}, fmt.Errorf("specs describe %d nets; set net", len(nets))
	}

	if errs := compiler.Validate(spec, prim.NewRegistry()); len(errs) > 0 {
		return ir.NetSpec{}, fmt.Errorf("net %s is invalid: %w", spec.Name, errs[0])
	}
	return spec, nil
}

// executeSteps runs the steps in order. After a fault the remaining steps
// are skipped: a faulted net never runs again.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		if step.Write != nil {
			if err := h.write(*step.Write); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			continue
		}

		for n := 0; n < step.Step; n++ {
			err := h.net.Step()
			if err == nil {
				result.Cycles++
				continue
			}
			if !engine.IsFault(err) {
				return fmt.Errorf("step %d: %w", i, err)
			}
			fe := h.net.Faulted()
			if err := h.store.WriteFault(ctx, h.run.ID, fe); err != nil {
				return err
			}
			h.logger.Info("scenario net faulted", "step", i, "cycle", fe.Cycle, "node", fe.Node)
			h.collectTrace(result)
			result.AddFaultTrace(fe.Node, fe.Message, fe.Cycle)
			return nil
		}
		h.logger.Info("scenario step completed", "step", i, "cycles", step.Step)
	}
	h.collectTrace(result)
	return nil
}

func (h *Harness) write(w Write) error {
	ch, err := h.net.Bus().Lookup(w.Key)
	if err != nil {
		return err
	}
	v, err := wireValue(w.Value)
	if err != nil {
		return fmt.Errorf("write %s: %w", w.Key, err)
	}
	return ch.Set(v)
}

func (h *Harness) collectTrace(result *Result) {
	for _, rec := range h.recorder.Records() {
		result.AddUpdateTrace(rec.Direction, rec.Update.Key, rec.Update.Value, rec.Update.Cycle)
	}
}

// collectState reads the last value of every channel back from the store.
// Declared defaults that were never updated are included from the bus.
func (h *Harness) collectState(ctx context.Context, result *Result) error {
	for key, v := range h.net.Bus().Snapshot() {
		result.State[key] = v
	}
	latest, err := h.store.Query(ctx, queryir.Latest{Run: h.run.ID})
	if err != nil {
		return err
	}
	for _, u := range latest {
		result.State[u.Key] = u.Value
	}
	return nil
}
