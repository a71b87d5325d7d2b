package health

import (
	"testing"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/pool"
)

// fakeProvider returns a canned snapshot.
type fakeProvider struct {
	stats pool.Stats
}

func (f *fakeProvider) Stats() pool.Stats { return f.stats }

func runningStats() pool.Stats {
	return pool.Stats{
		Workers:      4,
		IdleWorkers:  2,
		QueueDepth:   1,
		State:        "running",
		BreakerState: breaker.StateClosed,
	}
}

func TestLiveness_Healthy(t *testing.T) {
	m := NewMonitor(&fakeProvider{stats: runningStats()}, 0)

	got := m.Liveness()
	if !got.Healthy() {
		t.Errorf("Liveness() = %+v, want healthy", got)
	}
	if got.Details.Workers != 4 || got.Details.BreakerState != "closed" || got.Details.PoolState != "running" {
		t.Errorf("Liveness() details = %+v, missing required fields", got.Details)
	}
}

func TestLiveness_NoWorkers(t *testing.T) {
	stats := runningStats()
	stats.Workers = 0
	m := NewMonitor(&fakeProvider{stats: stats}, 0)

	if got := m.Liveness(); got.Healthy() {
		t.Errorf("Liveness() = %+v, want unhealthy with no workers", got)
	}
}

func TestLiveness_ShuttingDown(t *testing.T) {
	stats := runningStats()
	stats.State = "draining"
	m := NewMonitor(&fakeProvider{stats: stats}, 0)

	if got := m.Liveness(); got.Healthy() {
		t.Errorf("Liveness() = %+v, want unhealthy while draining", got)
	}
}

func TestLiveness_HealthyWhileBreakerOpen(t *testing.T) {
	// An open breaker is protective, not fatal: liveness holds.
	stats := runningStats()
	stats.BreakerState = breaker.StateOpen
	m := NewMonitor(&fakeProvider{stats: stats}, 0)

	if got := m.Liveness(); !got.Healthy() {
		t.Errorf("Liveness() = %+v, want healthy with open breaker", got)
	}
}

func TestReadiness_Healthy(t *testing.T) {
	m := NewMonitor(&fakeProvider{stats: runningStats()}, 10)

	if got := m.Readiness(); !got.Healthy() {
		t.Errorf("Readiness() = %+v, want healthy", got)
	}
}

func TestReadiness_BreakerOpen(t *testing.T) {
	stats := runningStats()
	stats.BreakerState = breaker.StateOpen
	m := NewMonitor(&fakeProvider{stats: stats}, 10)

	got := m.Readiness()
	if got.Healthy() {
		t.Errorf("Readiness() = %+v, want unhealthy with open breaker", got)
	}
	if got.Details.Reason != "circuit breaker is open" {
		t.Errorf("Reason = %q, want breaker reason", got.Details.Reason)
	}
}

func TestReadiness_NoSpareCapacity(t *testing.T) {
	stats := runningStats()
	stats.IdleWorkers = 0
	stats.QueueDepth = 10
	m := NewMonitor(&fakeProvider{stats: stats}, 10)

	if got := m.Readiness(); got.Healthy() {
		t.Errorf("Readiness() = %+v, want unhealthy at capacity", got)
	}
}

func TestReadiness_FullQueueButIdleWorkers(t *testing.T) {
	// Spare capacity requires BOTH no idle worker and a full queue.
	stats := runningStats()
	stats.IdleWorkers = 1
	stats.QueueDepth = 10
	m := NewMonitor(&fakeProvider{stats: stats}, 10)

	if got := m.Readiness(); !got.Healthy() {
		t.Errorf("Readiness() = %+v, want healthy with an idle worker", got)
	}
}

func TestReadiness_UnboundedQueueNeverSaturates(t *testing.T) {
	stats := runningStats()
	stats.IdleWorkers = 0
	stats.QueueDepth = 100000
	m := NewMonitor(&fakeProvider{stats: stats}, 0)

	if got := m.Readiness(); !got.Healthy() {
		t.Errorf("Readiness() = %+v, want healthy with unbounded queue", got)
	}
}

func TestReadiness_ShuttingDown(t *testing.T) {
	stats := runningStats()
	stats.State = "draining"
	m := NewMonitor(&fakeProvider{stats: stats}, 10)

	if got := m.Readiness(); got.Healthy() {
		t.Errorf("Readiness() = %+v, want unhealthy while draining", got)
	}
}
