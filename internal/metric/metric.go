// Package metric exports net execution metrics to Prometheus.
//
// A Collector implements engine.Metrics and netcomm.Recorder, so one value
// can be handed to every net built by a process:
//
//	c := metric.NewCollector()
//	b := engine.NewBuilder(name, period, engine.WithMetrics(c))
//	b.Bus().SetRecorder(c)
//
// Serve exposes the collector's registry over HTTP.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

const namespace = "rcore"

// Collector holds the per-net execution metrics.
//
// Thread-safety: safe for concurrent use by any number of nets.
type Collector struct {
	registry *prometheus.Registry

	cycles   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	overruns *prometheus.CounterVec
	faulted  *prometheus.GaugeVec
	updates  *prometheus.CounterVec
}

// NewCollector creates a collector on a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "cycles_total",
				Help:      "Total number of completed cycles",
			},
			[]string{"net"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "cycle_duration_seconds",
				Help:      "Wall-clock time spent computing one cycle",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"net"},
		),

		overruns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "overruns_total",
				Help:      "Total number of cycles that took longer than the period",
			},
			[]string{"net"},
		),

		faulted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "net",
				Name:      "faulted",
				Help:      "Net fault state (0=running, 1=faulted)",
			},
			[]string{"net"},
		),

		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "netcomm",
				Name:      "updates_total",
				Help:      "Total number of applied netcomm channel updates",
			},
			[]string{"net", "direction"},
		),
	}

	c.registry.MustRegister(
		c.cycles,
		c.duration,
		c.overruns,
		c.faulted,
		c.updates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CycleCompleted implements engine.Metrics.
func (c *Collector) CycleCompleted(net string, d time.Duration) {
	c.cycles.WithLabelValues(net).Inc()
	c.duration.WithLabelValues(net).Observe(d.Seconds())
	c.faulted.WithLabelValues(net).Set(0)
}

// Overrun implements engine.Metrics.
func (c *Collector) Overrun(net string) {
	c.overruns.WithLabelValues(net).Inc()
}

// Faulted implements engine.Metrics.
func (c *Collector) Faulted(net string) {
	c.faulted.WithLabelValues(net).Set(1)
}

// RecordUpdate implements netcomm.Recorder.
func (c *Collector) RecordUpdate(net string, dir ir.Direction, _ netcomm.Update) error {
	c.updates.WithLabelValues(net, string(dir)).Inc()
	return nil
}
