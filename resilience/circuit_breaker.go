package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by CanExecute-gated callers when the breaker
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// CircuitBreaker is a simple closed/open/half-open breaker, grounded on the
// teacher's resilience.CircuitBreaker: trip after FailureThreshold
// consecutive failures, stay open for OpenDuration, then allow a single
// trial call in half-open before fully closing or re-opening.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	failureThreshold int
	openDuration     time.Duration
	openedAt         time.Time
}

// NewCircuitBreaker builds a breaker that opens after failureThreshold
// consecutive failures and stays open for openDuration.
func NewCircuitBreaker(failureThreshold int, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		state:            StateClosed,
	}
}

// CanExecute reports whether a call may proceed, transitioning Open->HalfOpen
// once openDuration has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		// The single trial call was already let through on the Open->HalfOpen
		// transition; further calls wait for its recorded outcome.
		return false
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.openDuration {
			cb.state = StateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.state = StateClosed
}

// RecordFailure increments the failure count, tripping the breaker open
// once the threshold is reached (or immediately, from half-open).
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.openedAt = time.Now()
		return
	}

	cb.failures++
	if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}

// CurrentState reports the current breaker state, for diagnostics/tests.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
