package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2,
	}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryExhausted(t *testing.T) {
	err := Retry(context.Background(), &RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}, func() error {
		return errors.New("permanent")
	})
	require.Error(t, err)
	var exhausted *ErrMaxAttemptsExceeded
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 2, exhausted.Attempts)
}

func TestRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, DefaultRetryConfig(), func() error {
		return errors.New("should not matter")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 20*time.Millisecond)
	require.True(t, cb.CanExecute())

	cb.RecordFailure()
	require.Equal(t, StateClosed, cb.CurrentState())
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.CurrentState())
	require.False(t, cb.CanExecute())

	time.Sleep(25 * time.Millisecond)
	require.True(t, cb.CanExecute())
	require.Equal(t, StateHalfOpen, cb.CurrentState())

	cb.RecordSuccess()
	require.Equal(t, StateClosed, cb.CurrentState())
}
