package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskFunc is the payload executed by a worker.
// ctx is cancelled when the pool terminates.
type TaskFunc func(ctx context.Context) (any, error)

// Task is one admitted unit of work. Immutable after admission; the pool
// owns it until its completion handle resolves.
type Task struct {
	id          string
	payload     TaskFunc
	submittedAt time.Time
	promise     Promise
}

func newTask(fn TaskFunc) *Task {
	return &Task{
		id:          uuid.New().String(),
		payload:     fn,
		submittedAt: time.Now(),
		promise:     NewPromise(),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// SubmittedAt returns the admission timestamp.
func (t *Task) SubmittedAt() time.Time { return t.submittedAt }
