package breaker

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold: 0.5,
		WindowSize:       4,
		SuccessThreshold: 3,
		RecoveryTimeout:  50 * time.Millisecond,
	}
}

func TestBreaker_StartsClosed(t *testing.T) {
	cb := New(testConfig())

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if !cb.ShouldAccept() {
		t.Error("ShouldAccept() should be true in closed state")
	}
}

func TestBreaker_EmptyWindowNeverTrips(t *testing.T) {
	cb := New(testConfig())

	// No results recorded: rate is 0, not NaN, and the state holds.
	if cb.FailureRate() != 0 {
		t.Errorf("FailureRate() = %v, want 0", cb.FailureRate())
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestBreaker_TripsAtFailureThreshold(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(true)
	cb.RecordResult(true)
	if cb.State() != StateClosed {
		t.Fatalf("State() = %v, want closed after successes", cb.State())
	}

	// 2 failures in a window of 4 reaches the 0.5 threshold.
	cb.RecordResult(false)
	cb.RecordResult(false)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open", cb.State())
	}
	if cb.ShouldAccept() {
		t.Error("ShouldAccept() should be false in open state")
	}
}

func TestBreaker_AllFailuresTrip(t *testing.T) {
	cb := New(testConfig())

	for i := 0; i < 4; i++ {
		cb.RecordResult(false)
	}
	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open after [fail fail fail fail]", cb.State())
	}
}

func TestBreaker_SingleFailureBelowThresholdStaysClosed(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 10
	cb := New(cfg)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed at rate 1/3", cb.State())
	}
}

func TestBreaker_FirstResultFailureTrips(t *testing.T) {
	cb := New(testConfig())

	// One failure in a window of one entry is a 100% rate.
	cb.RecordResult(false)
	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open", cb.State())
	}
}

func TestBreaker_WindowEviction(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 4
	cb := New(cfg)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(true)
	// Window full of successes; two failures evict two of them: rate 2/4.
	cb.RecordResult(false)
	cb.RecordResult(false)

	if got := cb.FailureRate(); got != 0.5 {
		t.Errorf("FailureRate() = %v, want 0.5", got)
	}
	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open", cb.State())
	}
}

func TestBreaker_RecoveryTimeoutMovesToHalfOpen(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(false)
	if cb.ShouldAccept() {
		t.Fatal("ShouldAccept() should be false right after tripping")
	}

	time.Sleep(70 * time.Millisecond)

	// The open to half-open transition is deferred: it fires on the next
	// read after the timeout, not on a timer.
	if !cb.ShouldAccept() {
		t.Error("ShouldAccept() should be true after recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("State() = %v, want half-open", cb.State())
	}
}

func TestBreaker_HalfOpenClosesAfterSuccessStreak(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(false)
	time.Sleep(70 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}

	cb.RecordResult(true)
	cb.RecordResult(true)
	if cb.State() != StateClosed {
		// Two successes, threshold is three.
		if cb.State() != StateHalfOpen {
			t.Fatalf("State() = %v, want half-open before the streak completes", cb.State())
		}
	}

	cb.RecordResult(true)
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed after %d successes", cb.State(), 3)
	}
}

func TestBreaker_HalfOpenReopensOnSingleFailure(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(false)
	time.Sleep(70 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open", cb.State())
	}

	cb.RecordResult(true)
	cb.RecordResult(false)

	if cb.State() != StateOpen {
		t.Errorf("State() = %v, want open after a probe failure", cb.State())
	}
}

func TestBreaker_SuccessStreakResetsOnReentry(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(false)
	time.Sleep(70 * time.Millisecond)
	cb.State() // half-open
	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false) // reopen

	time.Sleep(70 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %v, want half-open again", cb.State())
	}

	// The earlier two successes must not count toward this streak.
	cb.RecordResult(true)
	cb.RecordResult(true)
	if cb.State() == StateClosed {
		t.Error("streak from the previous half-open period leaked across reentry")
	}
	cb.RecordResult(true)
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestBreaker_WindowKeepsSlidingAcrossTransitions(t *testing.T) {
	cb := New(testConfig())

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	time.Sleep(70 * time.Millisecond)
	cb.State() // half-open

	// The window was not cleared: the two failures are still inside it.
	if got := cb.FailureRate(); got != 1.0 {
		t.Errorf("FailureRate() = %v, want 1.0 (window survives transitions)", got)
	}
}

func TestBreaker_ConfigDefaults(t *testing.T) {
	cb := New(Config{})

	if len(cb.window) != 10 {
		t.Errorf("window size = %d, want default 10", len(cb.window))
	}
	if cb.failureThreshold != 0.5 {
		t.Errorf("failure threshold = %v, want default 0.5", cb.failureThreshold)
	}
	if cb.successThreshold != 3 {
		t.Errorf("success threshold = %d, want default 3", cb.successThreshold)
	}
	if cb.recoveryTimeout != 5*time.Second {
		t.Errorf("recovery timeout = %v, want default 5s", cb.recoveryTimeout)
	}
}

func TestBreakerState_String(t *testing.T) {
	if StateClosed.String() != "closed" || StateOpen.String() != "open" || StateHalfOpen.String() != "half-open" {
		t.Error("State.String() returned unexpected names")
	}
}
