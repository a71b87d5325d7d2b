package pool

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/taskmeshio/taskmesh/pkg/breaker"
	"github.com/taskmeshio/taskmesh/pkg/core"
	"github.com/taskmeshio/taskmesh/pkg/core/failfast"
)

// poolState is the coordinator lifecycle state machine:
// running -> draining -> terminated, monotonic.
type poolState int32

const (
	stateRunning poolState = iota
	stateDraining
	stateTerminated
)

func (s poolState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Pool is the coordinator: it owns the fixed worker set, the pending
// queue, admission control via the circuit breaker, and graceful shutdown.
//
// All coordinator state (queue, counters, worker status) is serialized
// under one mutex; workers never mutate it directly, they report outcomes
// through onTaskComplete.
//
// Ordering: FIFO is guaranteed only within the pending queue. A task
// dispatched immediately to an idle worker may complete out of submission
// order relative to queued tasks; that is expected behavior.
type Pool struct {
	mu       sync.Mutex
	state    poolState
	workers  []*worker
	idle     []*worker // LIFO stack of idle workers
	pending  []*Task   // FIFO queue of admitted, undispatched tasks
	inFlight int       // tasks owned by a worker or queued

	submitted int64
	completed int64
	failed    int64
	rejected  int64

	cfg     Config
	breaker *breaker.CircuitBreaker
	metrics Metrics
	logger  core.Logger
	tracer  trace.Tracer

	taskCtx    context.Context
	taskCancel context.CancelFunc
	stop       chan struct{} // closed to signal workers to exit
	done       chan struct{} // closed once shutdown has fully completed
	wg         sync.WaitGroup
}

// New creates a pool with a fixed worker set and starts the workers.
// ctx is the parent context for payload execution; it is cancelled when
// the pool terminates.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.Workers < 1 {
		return nil, ErrInvalidPoolSize
	}
	if cfg.DrainPollInterval <= 0 {
		cfg.DrainPollInterval = 10 * time.Millisecond
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = core.NewDefaultLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	taskCtx, cancel := context.WithCancel(ctx)
	p := &Pool{
		cfg:        cfg,
		breaker:    breaker.New(cfg.Breaker),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
		taskCtx:    taskCtx,
		taskCancel: cancel,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	p.workers = make([]*worker, cfg.Workers)
	p.idle = make([]*worker, 0, cfg.Workers)
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		w := newWorker(i, p)
		p.workers[i] = w
		p.idle = append(p.idle, w)
		go w.run()
	}

	p.logger.Infof("pool started with %d workers", cfg.Workers)
	return p, nil
}

// Submit admits one unit of work and returns its completion handle.
// Fails synchronously with ErrPoolClosed once shutdown has started and
// with ErrCircuitOpen while the breaker rejects admissions; neither error
// is ever delivered through a completion handle.
func (p *Pool) Submit(fn TaskFunc) (Future, error) {
	if fn == nil {
		return nil, ErrNilPayload
	}

	p.mu.Lock()
	if p.state != stateRunning {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if !p.breaker.ShouldAccept() {
		p.rejected++
		p.mu.Unlock()
		p.metrics.RecordRejection()
		p.metrics.SetBreakerState(p.breaker.State())
		return nil, ErrCircuitOpen
	}

	t := newTask(fn)
	p.submitted++
	p.inFlight++

	var w *worker
	if n := len(p.idle); n > 0 {
		w = p.idle[n-1]
		p.idle = p.idle[:n-1]
		w.status = workerBusy
		w.current = t
	} else {
		p.pending = append(p.pending, t)
	}
	busy := len(p.workers) - len(p.idle)
	depth := len(p.pending)
	p.mu.Unlock()

	p.metrics.SetActiveWorkers(busy)
	p.metrics.SetQueueDepth(depth)
	// ShouldAccept may have moved the breaker from open to half-open;
	// refresh the gauge here so it does not wait for a completion.
	p.metrics.SetBreakerState(p.breaker.State())

	if w != nil {
		// The worker was taken off the idle stack under the lock, so it
		// is the sole receiver and the buffered send cannot block.
		w.dispatch <- t
	}
	return t.promise, nil
}

// onTaskComplete is invoked by a worker after each payload execution.
// It resolves the completion handle, feeds the metrics sink and the
// breaker, and keeps the worker busy if more work is pending.
func (p *Pool) onTaskComplete(w *worker, t *Task, value any, err error, d time.Duration) {
	p.mu.Lock()
	if p.state == stateTerminated {
		// Forced termination already failed this task's handle.
		p.mu.Unlock()
		return
	}
	failfast.If(w.current == t, "worker %d reported completion for a task it was never assigned", w.id)
	w.current = nil

	p.breaker.RecordResult(err == nil)
	p.inFlight--
	if err != nil {
		p.failed++
	} else {
		p.completed++
	}

	// No idle gap while work is pending: hand the next queued task to
	// this worker before it returns to the idle stack.
	var next *Task
	if len(p.pending) > 0 {
		next = p.pending[0]
		p.pending = p.pending[1:]
		w.current = next
	} else {
		w.status = workerIdle
		p.idle = append(p.idle, w)
	}
	busy := len(p.workers) - len(p.idle)
	depth := len(p.pending)
	breakerState := p.breaker.State()
	p.mu.Unlock()

	if err != nil {
		t.promise.Fail(err)
		p.metrics.RecordFailure(d)
	} else {
		t.promise.Complete(value)
		p.metrics.RecordSuccess(d)
	}
	p.metrics.SetActiveWorkers(busy)
	p.metrics.SetQueueDepth(depth)
	p.metrics.SetBreakerState(breakerState)

	if next != nil {
		w.dispatch <- next
	}
}

// Shutdown drains the pool and terminates the workers: no new work is
// admitted, in-flight and queued tasks are allowed to finish until ctx
// expires. On expiry the pool terminates anyway and every task still
// pending or in flight has its completion handle failed with
// ErrShutdownTimeout, which is also the return value.
//
// Shutdown is idempotent: concurrent or repeated calls wait for the first
// one to finish and return nil.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.state != stateRunning {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.state = stateDraining
	inFlight := p.inFlight
	p.mu.Unlock()

	p.logger.Infof("pool draining, %d tasks in flight", inFlight)

	drained := p.awaitDrain(ctx)

	var abandoned []*Task
	p.mu.Lock()
	p.state = stateTerminated
	if !drained {
		abandoned = append(abandoned, p.pending...)
		p.pending = nil
		for _, w := range p.workers {
			if w.current != nil {
				abandoned = append(abandoned, w.current)
				w.current = nil
			}
		}
		p.inFlight = 0
	}
	for _, w := range p.workers {
		w.status = workerTerminated
	}
	p.idle = nil
	p.mu.Unlock()

	for _, t := range abandoned {
		t.promise.TryFail(ErrShutdownTimeout)
	}

	p.taskCancel()
	close(p.stop)

	joined := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-ctx.Done():
		// Abandoned workers are stuck in their payloads; they exit on
		// their own once the payload returns.
	}

	p.metrics.SetActiveWorkers(0)
	p.metrics.SetQueueDepth(0)
	close(p.done)

	if !drained {
		p.logger.Warnf("pool terminated with %d abandoned tasks", len(abandoned))
		return ErrShutdownTimeout
	}
	p.logger.Info("pool terminated cleanly")
	return nil
}

// awaitDrain polls the in-flight count until it reaches zero or ctx
// expires. Polling keeps the drain loop off the workers' completion path.
func (p *Pool) awaitDrain(ctx context.Context) bool {
	ticker := time.NewTicker(p.cfg.DrainPollInterval)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		n := p.inFlight
		p.mu.Unlock()
		if n == 0 {
			return true
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Workers       int
	ActiveWorkers int
	IdleWorkers   int
	QueueDepth    int
	InFlight      int
	Submitted     int64
	Completed     int64
	Failed        int64
	Rejected      int64
	State         string
	BreakerState  breaker.State
}

// Stats returns a consistent snapshot of the pool's counters and state.
// Safe to call concurrently with submission; it only reads.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy := 0
	for _, w := range p.workers {
		if w.current != nil {
			busy++
		}
	}

	return Stats{
		Workers:       len(p.workers),
		ActiveWorkers: busy,
		IdleWorkers:   len(p.idle),
		QueueDepth:    len(p.pending),
		InFlight:      p.inFlight,
		Submitted:     p.submitted,
		Completed:     p.completed,
		Failed:        p.failed,
		Rejected:      p.rejected,
		State:         p.state.String(),
		BreakerState:  p.breaker.State(),
	}
}

// MaxQueueDepth returns the configured pending-queue bound for readiness
// reporting; 0 means unbounded.
func (p *Pool) MaxQueueDepth() int {
	return p.cfg.MaxQueueDepth
}

// Workers returns the fixed worker count.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IsRunning reports whether the pool still accepts submissions.
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateRunning
}
