package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last keystroke before a text search is issued.
const DefaultDebounce = 300 * time.Millisecond

// Metrics are optional; nil fields are skipped.
type Metrics struct {
	// Responses has label "outcome" ("applied"/"stale"/"error").
	Responses *prometheus.CounterVec
	Issued    prometheus.Counter
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange registers a callback invoked after every state change.
// It runs without the controller lock held and may call State.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnError registers a callback for recoverable errors (failed fetches and searches).
func WithOnError(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithClock replaces the wall clock used for debouncing.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the search counters.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}
