package prometheus

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordSuccess(10 * time.Millisecond)
	m.RecordSuccess(20 * time.Millisecond)
	m.RecordFailure(5 * time.Millisecond)
	m.RecordRejection()

	if got := testutil.ToFloat64(m.tasksTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("tasks_total{status=completed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tasksTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("tasks_total{status=failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tasksTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("tasks_total{status=rejected} = %v, want 1", got)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics(nil)

	m.SetActiveWorkers(4)
	m.SetQueueDepth(9)
	m.SetBreakerState(breaker.StateHalfOpen)

	if got := testutil.ToFloat64(m.activeWorkers); got != 4 {
		t.Errorf("worker_pool_active_workers = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 9 {
		t.Errorf("worker_pool_queue_depth = %v, want 9", got)
	}
	if got := testutil.ToFloat64(m.breakerState); got != float64(breaker.StateHalfOpen) {
		t.Errorf("worker_pool_breaker_state = %v, want %v", got, float64(breaker.StateHalfOpen))
	}
}

func TestMetrics_ExportFormat(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordSuccess(50 * time.Millisecond)
	m.SetActiveWorkers(1)

	text, err := m.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	for _, want := range []string{
		"# TYPE tasks_total counter",
		`tasks_total{status="completed"} 1`,
		`tasks_total{status="failed"} 0`,
		`tasks_total{status="rejected"} 0`,
		"# TYPE task_duration_seconds histogram",
		"task_duration_seconds_bucket{le=",
		"# TYPE worker_pool_active_workers gauge",
		"worker_pool_active_workers 1",
		"# TYPE worker_pool_queue_depth gauge",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Export() missing %q\ngot:\n%s", want, text)
		}
	}
}

func TestMetrics_ExportStableAcrossCalls(t *testing.T) {
	m := NewMetrics(nil)

	first, err := m.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	second, err := m.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if first != second {
		t.Error("Export() changed between calls with no recordings")
	}
}

func TestMetrics_HistogramBuckets(t *testing.T) {
	m := NewMetrics([]float64{0.1, 1})

	m.RecordSuccess(50 * time.Millisecond)
	m.RecordFailure(500 * time.Millisecond)

	text, err := m.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	// Cumulative counts are non-decreasing across bucket bounds.
	for _, want := range []string{
		`task_duration_seconds_bucket{le="0.1"} 1`,
		`task_duration_seconds_bucket{le="1"} 2`,
		`task_duration_seconds_bucket{le="+Inf"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Export() missing %q\ngot:\n%s", want, text)
		}
	}
}
