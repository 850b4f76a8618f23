// Package resilience provides retry and circuit-breaker primitives for the
// transport edge. RedisCache wraps its get/put round trips in Retry; the
// provider adapters and the orchestrator core do not use this package, and
// nothing in the module wires a CircuitBreaker. The core never retries a
// ModelProvider.Generate call — per-phase timeouts and stage fallbacks
// cover that.
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryConfig configures exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig is tuned for a fast transport-edge retry, not a
// long-running provider call.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// ErrMaxAttemptsExceeded wraps the last error once every attempt fails.
type ErrMaxAttemptsExceeded struct {
	Attempts int
	Last     error
}

func (e *ErrMaxAttemptsExceeded) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded: %v", e.Attempts, e.Last)
}

func (e *ErrMaxAttemptsExceeded) Unwrap() error { return e.Last }

// Retry runs fn until it succeeds, the context is done, or MaxAttempts is
// reached, backing off exponentially with sine-based jitter between
// attempts.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == config.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		if config.JitterEnabled {
			jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
			delay += jitter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ErrMaxAttemptsExceeded{Attempts: config.MaxAttempts, Last: lastErr}
}

// RetryWithCircuitBreaker combines Retry with a CircuitBreaker gate.
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, config, func() error {
		if !cb.CanExecute() {
			return ErrCircuitOpen
		}
		if err := fn(); err != nil {
			cb.RecordFailure()
			return err
		}
		cb.RecordSuccess()
		return nil
	})
}
