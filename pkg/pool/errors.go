package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolClosed is returned by Submit once shutdown has started.
	// Permanent: the pool never accepts work again.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrCircuitOpen is returned by Submit while the circuit breaker is
	// rejecting admissions. Transient: callers may retry after backoff.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrShutdownTimeout is returned by Shutdown when the drain did not
	// complete in time. Tasks still pending or in flight at that point
	// have their completion handles failed with this error.
	ErrShutdownTimeout = errors.New("shutdown timed out before drain completed")

	// ErrInvalidPoolSize is returned by New when the worker count is < 1.
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrNilPayload is returned by Submit for a nil payload function.
	ErrNilPayload = errors.New("payload cannot be nil")

	// ErrTypeAssertion is returned by Await[T] when a resolved value does
	// not have the requested type.
	ErrTypeAssertion = errors.New("type assertion failed")
)

// PanicError wraps a panic recovered inside a task payload together with
// its stack trace. It is delivered through the task's completion handle;
// a panicking payload never terminates a worker.
type PanicError struct {
	Value interface{}
	Stack string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v\n%s", p.Value, p.Stack)
}
