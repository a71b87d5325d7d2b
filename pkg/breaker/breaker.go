package breaker

import (
	"sync"
	"time"
)

// State is the admission state of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns a human-readable state name for logs and health details.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a CircuitBreaker.
type Config struct {
	// FailureThreshold is the failure rate over the sliding window
	// (0..1] that trips the breaker from closed to open.
	FailureThreshold float64

	// WindowSize is the capacity of the sliding outcome window.
	WindowSize int

	// SuccessThreshold is the number of consecutive successes required
	// in half-open before the breaker closes again.
	SuccessThreshold int

	// RecoveryTimeout is how long the breaker stays open before
	// probing recovery via half-open.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 0.5,
		WindowSize:       10,
		SuccessThreshold: 3,
		RecoveryTimeout:  5 * time.Second,
	}
}

// CircuitBreaker gates admission based on the failure rate of recent
// outcomes. It tracks a fixed-size sliding window of results rather than a
// consecutive-failure count, so a burst of old successes ages out instead of
// masking a failing dependency forever.
//
// The window is intentionally NOT cleared on state transitions; it keeps
// sliding. Only the half-open success streak is reset when entering
// half-open.
type CircuitBreaker struct {
	mu sync.RWMutex

	state            State
	window           []bool // ring buffer of outcomes, true = success
	windowHead       int
	windowCount      int
	failures         int // failures currently inside the window
	halfOpenSuccess  int
	failureThreshold float64
	successThreshold int
	recoveryTimeout  time.Duration
	lastTransition   time.Time
}

// New creates a CircuitBreaker in the closed state.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		cfg.FailureThreshold = 0.5
	}
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 10
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 3
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 5 * time.Second
	}

	return &CircuitBreaker{
		state:            StateClosed,
		window:           make([]bool, cfg.WindowSize),
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		lastTransition:   time.Now(),
	}
}

// ShouldAccept reports whether a new task may be admitted.
// Returns true in closed and half-open, false in open. The open to
// half-open transition is deferred: it happens lazily here once
// RecoveryTimeout has elapsed, not on a timer.
func (cb *CircuitBreaker) ShouldAccept() bool {
	cb.mu.RLock()
	state := cb.state
	lastTransition := cb.lastTransition
	cb.mu.RUnlock()

	switch state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(lastTransition) < cb.recoveryTimeout {
			return false
		}
		cb.mu.Lock()
		// Double check under the write lock
		if cb.state == StateOpen && time.Since(cb.lastTransition) >= cb.recoveryTimeout {
			cb.transition(StateHalfOpen)
		}
		cb.mu.Unlock()
		return true
	default:
		return false
	}
}

// RecordResult records one task outcome and applies state transitions.
func (cb *CircuitBreaker) RecordResult(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.push(success)

	switch cb.state {
	case StateClosed:
		if cb.windowCount > 0 && cb.failureRateLocked() >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			// A single probe failure reopens immediately, no averaging.
			cb.transition(StateOpen)
			return
		}
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.successThreshold {
			cb.transition(StateClosed)
		}
	case StateOpen:
		// Results from tasks admitted before the trip may still arrive;
		// they land in the window but cannot move the state.
	}
}

// State returns the current state, applying the deferred open to half-open
// transition if its timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastTransition) >= cb.recoveryTimeout {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

// FailureRate returns the failure fraction over the current window.
// Returns 0 while the window is empty.
func (cb *CircuitBreaker) FailureRate() float64 {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failureRateLocked()
}

// transition moves the breaker to a new state. Caller must hold cb.mu.
func (cb *CircuitBreaker) transition(next State) {
	cb.state = next
	cb.lastTransition = time.Now()
	if next == StateHalfOpen {
		cb.halfOpenSuccess = 0
	}
}

// push inserts an outcome into the ring buffer, evicting the oldest entry
// once the window is full. Caller must hold cb.mu.
func (cb *CircuitBreaker) push(success bool) {
	if cb.windowCount == len(cb.window) {
		if !cb.window[cb.windowHead] {
			cb.failures--
		}
	} else {
		cb.windowCount++
	}
	cb.window[cb.windowHead] = success
	if !success {
		cb.failures++
	}
	cb.windowHead = (cb.windowHead + 1) % len(cb.window)
}

func (cb *CircuitBreaker) failureRateLocked() float64 {
	if cb.windowCount == 0 {
		return 0
	}
	return float64(cb.failures) / float64(cb.windowCount)
}
