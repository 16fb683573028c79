package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfterFromMessage(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected time.Duration
	}{
		{"try again in minutes", "rate limit exceeded, try again in 12 minutes", 12 * time.Minute},
		{"try again in seconds", "quota exceeded, try again in 720 seconds", 720 * time.Second},
		{"try again in hour", "rate limit hit, try again in 1 hour", 1 * time.Hour},
		{"wait minutes", "please wait 5 minutes before retrying", 5 * time.Minute},
		{"retry_after json", `{"error": "rate_limit_error", "retry_after": 600}`, 600 * time.Second},
		{"retry-after text", "retry-after: 300 seconds recommended", 300 * time.Second},
		{"case insensitive", "Try Again In 10 Minutes", 10 * time.Minute},
		{"no match", "unknown error format", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRetryAfterFromMessage(tt.message))
		})
	}
}

func TestCircuitBreakerOpensAfterFailureThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Hour)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerQuotaFailureWeighted(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Hour)
	cb.recordFailureWithType(ErrorQuota)
	assert.Equal(t, CircuitOpen, cb.GetState())
}

func TestCircuitBreakerHalfOpenRecoversOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)
	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.GetState())

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)
	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
}

func alwaysTransient(err error) (ErrorType, time.Duration) { return ErrorTransient, 0 }

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, nil, alwaysTransient, "op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffGivesUpAfterMaxRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, nil, alwaysTransient, "op", func(ctx context.Context) error {
		attempts++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func alwaysAuth(err error) (ErrorType, time.Duration) { return ErrorAuth, 0 }

func TestRetryWithBackoffFailsFastOnAuthError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, nil, alwaysAuth, "op", func(ctx context.Context) error {
		attempts++
		return errors.New("unauthorized")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func alwaysQuota(err error) (ErrorType, time.Duration) { return ErrorQuota, time.Millisecond }

func TestRetryWithBackoffWaitsOutQuota(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second, MaxQuotaWait: time.Second}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, nil, alwaysQuota, "op", func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("429 rate limited")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoffQuotaExceedsMaxWaitFailsFast(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second, MaxQuotaWait: time.Microsecond}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, nil, alwaysQuota, "op", func(ctx context.Context) error {
		attempts++
		return errors.New("429 rate limited")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffRespectsCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Hour)
	cfg := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2, Timeout: time.Second}
	attempts := 0
	err := RetryWithBackoff(context.Background(), cfg, cb, alwaysTransient, "op", func(ctx context.Context) error {
		attempts++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.GetState())

	err = RetryWithBackoff(context.Background(), cfg, cb, alwaysTransient, "op", func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
