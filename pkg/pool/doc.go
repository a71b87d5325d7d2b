// Package pool implements a bounded worker pool with admission control
// and lifecycle management.
//
// A Pool owns a fixed set of long-lived workers. Submit admits one unit
// of work, gated by a circuit breaker, and returns a single-resolution
// Future. Tasks are pushed to idle workers; when all workers are busy
// they queue FIFO. Shutdown drains in-flight and queued work under a
// caller-supplied deadline and fails whatever remains with
// ErrShutdownTimeout.
//
// All coordinator state is serialized under one mutex. Workers report
// outcomes through a single callback path and never touch the queue,
// the counters, or the breaker directly.
package pool
