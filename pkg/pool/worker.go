package pool

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// workerStatus is the lifecycle state of a single worker.
type workerStatus int32

const (
	workerIdle workerStatus = iota
	workerBusy
	workerTerminated
)

// worker is a long-lived execution unit. It never pulls work itself; the
// coordinator pushes tasks through the dispatch channel so a task has
// exactly one owner and idle workers never race for the queue.
type worker struct {
	id   int
	pool *Pool

	// dispatch carries at most one task; the coordinator only sends to a
	// worker it has marked busy, so the send never blocks.
	dispatch chan *Task

	// status and current are guarded by the pool mutex.
	status  workerStatus
	current *Task
}

func newWorker(id int, p *Pool) *worker {
	return &worker{
		id:       id,
		pool:     p,
		dispatch: make(chan *Task, 1),
	}
}

// run is the worker execution loop. One goroutine per worker.
func (w *worker) run() {
	defer w.pool.wg.Done()

	for {
		select {
		case t := <-w.dispatch:
			w.execute(t)
		case <-w.pool.stop:
			return
		}
	}
}

// execute runs one payload and reports the outcome to the coordinator.
func (w *worker) execute(t *Task) {
	start := time.Now()
	value, err := w.invoke(w.pool.taskCtx, t)
	w.pool.onTaskComplete(w, t, value, err, time.Since(start))
}

// invoke runs the payload with panic isolation. A panicking payload
// surfaces as a PanicError on the task's completion handle; it never
// crashes the worker.
func (w *worker) invoke(ctx context.Context, t *Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	if tracer := w.pool.tracer; tracer != nil {
		var span trace.Span
		ctx, span = tracer.Start(ctx, "taskmesh.execute",
			trace.WithAttributes(
				attribute.String("task.id", t.id),
				attribute.String("worker.id", strconv.Itoa(w.id)),
			))
		defer func() {
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	return t.payload(ctx)
}
