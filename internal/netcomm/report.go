package netcomm

import (
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/roach88/rcore/internal/ir"
)

// Reporter aggregates the channels flagged for reporting into a single
// monitoring line, "key=value key=value", and logs it at a bounded rate.
type Reporter struct {
	bus     *Bus
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewReporter creates a reporter emitting at most limit lines per second,
// with bursts of up to burst lines. A zero limit disables emission.
func NewReporter(bus *Bus, limit rate.Limit, burst int, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		bus:     bus,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Line renders the report line. Channels without a value render as "-".
func (r *Reporter) Line() string {
	var sb strings.Builder
	for _, c := range r.bus.Channels() {
		if !c.report {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.key)
		sb.WriteByte('=')
		if v, ok := c.Get(); ok {
			sb.WriteString(ir.FormatValue(v))
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Emit logs the report line for cycle if the rate limit allows it.
// It reports whether a line was logged.
func (r *Reporter) Emit(cycle int64) bool {
	if !r.limiter.Allow() {
		return false
	}
	line := r.Line()
	if line == "" {
		return false
	}
	r.logger.Info("report", "net", r.bus.name, "cycle", cycle, "line", line)
	return true
}
