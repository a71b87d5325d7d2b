package pool

import (
	"time"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/core"
	"go.opentelemetry.io/otel/trace"
)

// Config configures a Pool.
type Config struct {
	// Workers is the fixed number of worker goroutines. Required, >= 1.
	// The worker set never resizes after construction.
	Workers int

	// MaxQueueDepth bounds the pending queue for readiness reporting.
	// 0 means unbounded. Submission is never rejected on queue depth;
	// the bound only drives the readiness signal.
	MaxQueueDepth int

	// Breaker configures the admission circuit breaker.
	Breaker breaker.Config

	// DrainPollInterval is how often the shutdown drain loop re-checks
	// the in-flight count.
	DrainPollInterval time.Duration

	// Metrics receives outcome measurements. Nil disables metrics.
	Metrics Metrics

	// Logger is used for operational logging. Nil means the default.
	Logger core.Logger

	// Tracer, when set, wraps every payload execution in a span.
	Tracer trace.Tracer
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:           10,
		MaxQueueDepth:     0,
		Breaker:           breaker.DefaultConfig(),
		DrainPollInterval: 10 * time.Millisecond,
	}
}
