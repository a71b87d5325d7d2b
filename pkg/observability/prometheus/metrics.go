package prometheus

import (
	"bytes"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/pool"
)

// Metrics adapts pool.Metrics to Prometheus collectors backed by a
// dedicated registry. No process-wide singletons: each pool owns its
// registry and its metrics live and die with it.
type Metrics struct {
	registry *prometheus.Registry

	tasksTotal    *prometheus.CounterVec
	taskDuration  prometheus.Histogram
	activeWorkers prometheus.Gauge
	queueDepth    prometheus.Gauge
	breakerState  prometheus.Gauge
}

var _ pool.Metrics = (*Metrics)(nil)

// NewMetrics creates the collector set on a fresh registry.
// buckets configures the duration histogram; nil means prometheus.DefBuckets.
func NewMetrics(buckets []float64) *Metrics {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()
	var registerer prometheus.Registerer = registry

	m := &Metrics{
		registry: registry,
		tasksTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_total",
				Help: "Total number of tasks by terminal status",
			},
			[]string{"status"},
		),
		taskDuration: promauto.With(registerer).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: buckets,
			},
		),
		activeWorkers: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_pool_active_workers",
				Help: "Number of workers currently executing a task",
			},
		),
		queueDepth: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_pool_queue_depth",
				Help: "Number of admitted tasks waiting for a worker",
			},
		),
		breakerState: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_pool_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			},
		),
	}

	// Pre-seed the status series so the export is stable from the first
	// call, before any task has finished.
	for _, status := range []string{"completed", "failed", "rejected"} {
		m.tasksTotal.WithLabelValues(status)
	}

	return m
}

// Registry returns the underlying registry, e.g. for embedding taskmesh
// metrics into an application-wide gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSuccess implements pool.Metrics.
func (m *Metrics) RecordSuccess(d time.Duration) {
	m.tasksTotal.WithLabelValues("completed").Inc()
	m.taskDuration.Observe(d.Seconds())
}

// RecordFailure implements pool.Metrics.
func (m *Metrics) RecordFailure(d time.Duration) {
	m.tasksTotal.WithLabelValues("failed").Inc()
	m.taskDuration.Observe(d.Seconds())
}

// RecordRejection implements pool.Metrics.
func (m *Metrics) RecordRejection() {
	m.tasksTotal.WithLabelValues("rejected").Inc()
}

// SetActiveWorkers implements pool.Metrics.
func (m *Metrics) SetActiveWorkers(n int) {
	m.activeWorkers.Set(float64(n))
}

// SetQueueDepth implements pool.Metrics.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// SetBreakerState implements pool.Metrics.
func (m *Metrics) SetBreakerState(s breaker.State) {
	m.breakerState.Set(float64(s))
}

// Export renders the registry in the Prometheus text exposition format.
// Read-only: gathering never mutates the counters.
func (m *Metrics) Export() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
