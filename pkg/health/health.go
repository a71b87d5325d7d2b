package health

import (
	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/pool"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Status is the result of a liveness or readiness probe.
type Status struct {
	Status  string  `json:"status"`
	Details Details `json:"details"`
}

// Healthy reports whether the probe passed.
func (s Status) Healthy() bool { return s.Status == StatusHealthy }

// Details carries the operational context behind a probe result.
type Details struct {
	Workers      int    `json:"workers"`
	QueueDepth   int    `json:"queue_depth"`
	BreakerState string `json:"breaker_state"`
	PoolState    string `json:"pool_state"`
	Reason       string `json:"reason,omitempty"`
}

// StatsProvider supplies pool snapshots. Probes only ever read snapshots;
// they are never on the pool's write path.
type StatsProvider interface {
	Stats() pool.Stats
}

// Monitor derives liveness and readiness signals from pool state.
// Safe for concurrent use alongside task submission.
type Monitor struct {
	provider      StatsProvider
	maxQueueDepth int
}

// NewMonitor creates a health monitor over a pool.
// maxQueueDepth bounds the queue for readiness; 0 means unbounded.
func NewMonitor(provider StatsProvider, maxQueueDepth int) *Monitor {
	return &Monitor{
		provider:      provider,
		maxQueueDepth: maxQueueDepth,
	}
}

// Liveness is unhealthy only if the pool has no workers or is shutting
// down. It stays healthy while the breaker is open: an open breaker is a
// protective state, not a dead process.
func (m *Monitor) Liveness() Status {
	stats := m.provider.Stats()
	details := detailsFrom(stats)

	switch {
	case stats.Workers == 0:
		details.Reason = "no workers"
		return Status{Status: StatusUnhealthy, Details: details}
	case stats.State != "running":
		details.Reason = "pool is shutting down"
		return Status{Status: StatusUnhealthy, Details: details}
	default:
		return Status{Status: StatusHealthy, Details: details}
	}
}

// Readiness is unhealthy while the breaker is open, while the pool is
// shutting down, or when there is no spare capacity: no idle worker and
// the pending queue at or past its configured bound.
func (m *Monitor) Readiness() Status {
	stats := m.provider.Stats()
	details := detailsFrom(stats)

	switch {
	case stats.State != "running":
		details.Reason = "pool is shutting down"
		return Status{Status: StatusUnhealthy, Details: details}
	case stats.BreakerState == breaker.StateOpen:
		details.Reason = "circuit breaker is open"
		return Status{Status: StatusUnhealthy, Details: details}
	case m.maxQueueDepth > 0 && stats.IdleWorkers == 0 && stats.QueueDepth >= m.maxQueueDepth:
		details.Reason = "no spare capacity"
		return Status{Status: StatusUnhealthy, Details: details}
	default:
		return Status{Status: StatusHealthy, Details: details}
	}
}

func detailsFrom(stats pool.Stats) Details {
	return Details{
		Workers:      stats.Workers,
		QueueDepth:   stats.QueueDepth,
		BreakerState: stats.BreakerState.String(),
		PoolState:    stats.State,
	}
}
