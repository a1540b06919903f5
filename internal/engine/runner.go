package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run steps the net once per period until ctx is cancelled or the net
// faults. A cycle that takes longer than the period counts as an overrun;
// the ticker drops the missed ticks, so the net does not try to catch up.
//
// Returns ctx.Err() on cancellation and the *FaultError on a fault.
//
// CRITICAL: Must be called from exactly ONE goroutine per net.
func (n *Net) Run(ctx context.Context) error {
	period, _ := PeriodDuration(n.period) // checked by Build
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	n.logger.Info("net starting", "net", n.name, "id", n.id, "period", period)
	for {
		start := time.Now()
		if err := n.Step(); err != nil {
			return err
		}
		if elapsed := time.Since(start); elapsed > period {
			n.overruns.Add(1)
			n.metrics.Overrun(n.name)
			n.logger.Warn("cycle overrun",
				"net", n.name,
				"cycle", n.clock.Current()-1,
				"elapsed", elapsed,
				"period", period,
			)
		}

		select {
		case <-ctx.Done():
			n.logger.Info("net stopping: context cancelled", "net", n.name, "cycles", n.clock.Current())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunAll runs several nets concurrently, each on its own goroutine and
// clock. The first fault cancels the others; RunAll returns that fault, or
// ctx.Err() once all nets stopped on cancellation.
func RunAll(ctx context.Context, nets ...*Net) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range nets {
		g.Go(func() error {
			return n.Run(gctx)
		})
	}
	return g.Wait()
}
