package pool

import (
	"time"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
)

// Metrics is the sink for task outcome measurements. Implementations must
// never block the caller; the pool invokes these on its completion path.
// The canonical implementation lives in pkg/observability/prometheus.
type Metrics interface {
	// RecordSuccess records one completed task and its execution duration.
	RecordSuccess(d time.Duration)

	// RecordFailure records one failed task and its execution duration.
	RecordFailure(d time.Duration)

	// RecordRejection records one task rejected at admission.
	RecordRejection()

	// SetActiveWorkers updates the busy-worker gauge.
	SetActiveWorkers(n int)

	// SetQueueDepth updates the pending-queue gauge.
	SetQueueDepth(n int)

	// SetBreakerState updates the breaker state gauge.
	SetBreakerState(s breaker.State)
}

// nopMetrics is used when the caller does not inject a Metrics sink.
type nopMetrics struct{}

func (nopMetrics) RecordSuccess(time.Duration)   {}
func (nopMetrics) RecordFailure(time.Duration)   {}
func (nopMetrics) RecordRejection()              {}
func (nopMetrics) SetActiveWorkers(int)          {}
func (nopMetrics) SetQueueDepth(int)             {}
func (nopMetrics) SetBreakerState(breaker.State) {}
