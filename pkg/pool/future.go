package pool

import (
	"context"
	"sync"
)

// Result carries the terminal outcome of a task.
type Result struct {
	Value any
	Err   error
}

// Future is the read side of a task's completion handle.
// It resolves exactly once, either with a value or an error.
type Future interface {
	// Await blocks until the future resolves or ctx is cancelled.
	Await(ctx context.Context) (any, error)

	// Done returns a channel closed when the future has resolved.
	Done() <-chan struct{}

	// Result returns the outcome. Valid only after Done is closed;
	// before that it returns the zero Result.
	Result() Result

	// OnComplete registers a handler invoked once with the outcome.
	// If the future is already resolved the handler runs immediately.
	OnComplete(fn func(Result))
}

// Promise is the write side of a completion handle.
type Promise interface {
	Future

	// Complete resolves the future with a value. No-op if already resolved.
	Complete(value any)

	// Fail resolves the future with an error. No-op if already resolved.
	Fail(err error)

	// TryComplete resolves with a value and reports whether this call won.
	TryComplete(value any) bool

	// TryFail resolves with an error and reports whether this call won.
	TryFail(err error) bool
}

// promise implements Promise with exactly-once resolution semantics.
type promise struct {
	mu       sync.Mutex
	done     chan struct{}
	resolved bool
	result   Result
	handlers []func(Result)
}

// NewPromise creates an unresolved promise.
func NewPromise() Promise {
	return &promise{done: make(chan struct{})}
}

func (p *promise) resolve(r Result) bool {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return false
	}
	p.resolved = true
	p.result = r
	handlers := p.handlers
	p.handlers = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(r)
	}
	return true
}

func (p *promise) Complete(value any) { p.resolve(Result{Value: value}) }

func (p *promise) Fail(err error) { p.resolve(Result{Err: err}) }

func (p *promise) TryComplete(value any) bool { return p.resolve(Result{Value: value}) }

func (p *promise) TryFail(err error) bool { return p.resolve(Result{Err: err}) }

func (p *promise) Done() <-chan struct{} { return p.done }

func (p *promise) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		return Result{}
	}
	return p.result
}

func (p *promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		r := p.Result()
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *promise) OnComplete(fn func(Result)) {
	p.mu.Lock()
	if !p.resolved {
		p.handlers = append(p.handlers, fn)
		p.mu.Unlock()
		return
	}
	r := p.result
	p.mu.Unlock()
	fn(r)
}

// Await waits for a future and asserts its value to T.
// Provides typed results without assertions at every call site.
func Await[T any](ctx context.Context, f Future) (T, error) {
	var zero T
	v, err := f.Await(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, ErrTypeAssertion
	}
	return typed, nil
}
