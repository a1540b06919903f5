package engine

import (
	"math"
	"sync/atomic"
	"time"
)

// PeriodDuration converts a period in seconds to the interval Run ticks at.
// ok is false when the period is not representable: below one nanosecond,
// beyond time.Duration's range, or NaN.
func PeriodDuration(period float64) (d time.Duration, ok bool) {
	ns := period * float64(time.Second)
	if !(ns >= 1 && ns < math.MaxInt64) {
		return 0, false
	}
	return time.Duration(ns), true
}

// CycleClock is the logical clock of a net.
//
// Current is the index of the next cycle to run, starting at 0. It only moves
// forward, by exactly one per completed cycle, so cycle indices stamped on
// netcomm updates are strictly ordered and a replay reproduces them.
//
// Thread-safety: reads are atomic and safe from any goroutine. Only the
// goroutine stepping the net calls Advance.
type CycleClock struct {
	cycle  atomic.Int64
	period float64
}

// NewCycleClock creates a clock at cycle 0 with the given period in seconds.
func NewCycleClock(period float64) *CycleClock {
	return &CycleClock{period: period}
}

// NewCycleClockAt creates a clock starting at a specific cycle.
// Used to resume numbering from a recording.
func NewCycleClockAt(start int64, period float64) *CycleClock {
	c := &CycleClock{period: period}
	c.cycle.Store(start)
	return c
}

// Current returns the index of the next cycle to run.
func (c *CycleClock) Current() int64 {
	return c.cycle.Load()
}

// Advance completes the current cycle and returns the next index.
func (c *CycleClock) Advance() int64 {
	return c.cycle.Add(1)
}

// Period returns the cycle period in seconds.
func (c *CycleClock) Period() float64 {
	return c.period
}

// TimeOf returns the logical time of cycle in seconds.
func (c *CycleClock) TimeOf(cycle int64) float64 {
	return float64(cycle) * c.period
}

// Time returns the logical time of the next cycle.
func (c *CycleClock) Time() float64 {
	return c.TimeOf(c.Current())
}
