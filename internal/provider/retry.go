package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrorType classifies a provider error for retry purposes, grounded on
// the teacher's internal/ai.ErrorType.
type ErrorType int

const (
	ErrorTransient ErrorType = iota
	ErrorQuota
	ErrorInvalid
	ErrorAuth
	ErrorUnknown
)

func (e ErrorType) String() string {
	switch e {
	case ErrorTransient:
		return "TRANSIENT"
	case ErrorQuota:
		return "QUOTA"
	case ErrorInvalid:
		return "INVALID"
	case ErrorAuth:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}

// Classifier maps a provider error to a retry classification plus, for
// quota errors, a suggested wait before retrying. Each concrete provider
// supplies its own (status codes and header names differ per API), while
// the backoff/circuit-breaker machinery below stays provider-agnostic.
type Classifier func(err error) (ErrorType, time.Duration)

// RetryConfig controls RetryWithBackoff's behavior.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Timeout           time.Duration

	CircuitBreakerEnabled bool
	FailureThreshold      int
	SuccessThreshold      int
	OpenTimeout           time.Duration

	MaxQuotaWait time.Duration
}

// DefaultRetryConfig mirrors the teacher's defaults, with the quota-wait
// ceiling still overridable via DEEPAGENT_MAX_QUOTA_WAIT.
func DefaultRetryConfig() RetryConfig {
	maxQuotaWait := 15 * time.Minute
	if env := os.Getenv("DEEPAGENT_MAX_QUOTA_WAIT"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			if d <= 0 {
				fmt.Fprintf(os.Stderr, "Warning: DEEPAGENT_MAX_QUOTA_WAIT must be positive (%v), using default 15m\n", d)
			} else if d > 24*time.Hour {
				fmt.Fprintf(os.Stderr, "Warning: DEEPAGENT_MAX_QUOTA_WAIT exceeds 24h (%v), capping at 24h\n", d)
				maxQuotaWait = 24 * time.Hour
			} else {
				maxQuotaWait = d
			}
		} else {
			fmt.Fprintf(os.Stderr, "Warning: invalid DEEPAGENT_MAX_QUOTA_WAIT format (%q), using default 15m\n", env)
		}
	}

	return RetryConfig{
		MaxRetries:            3,
		InitialBackoff:        1 * time.Second,
		MaxBackoff:            30 * time.Second,
		BackoffMultiplier:     2.0,
		Timeout:               60 * time.Second,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		OpenTimeout:           30 * time.Second,
		MaxQuotaWait:          maxQuotaWait,
	}
}

// CircuitState is one of CircuitClosed/CircuitOpen/CircuitHalfOpen.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned by CircuitBreaker.Allow when the circuit is
// tripped and hasn't reached its open-timeout yet.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker prevents a struggling model provider from being hammered
// with retries: once FailureThreshold failures accumulate it fails fast
// for OpenTimeout, then probes recovery in half-open state.
type CircuitBreaker struct {
	mu sync.Mutex

	state            CircuitState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	lastStateChange  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
}

func NewCircuitBreaker(failureThreshold, successThreshold int, openTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
		lastStateChange:  time.Now(),
	}
}

func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.openTimeout {
			cb.transitionTo(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	case CircuitHalfOpen:
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transitionTo(CircuitClosed)
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.recordFailureWithType(ErrorUnknown)
}

// recordFailureWithType weights quota errors at 3x a plain failure so
// repeated rate limiting trips the circuit before a client burns its
// whole retry budget against a provider that is already refusing it.
func (cb *CircuitBreaker) recordFailureWithType(errorType ErrorType) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = time.Now()

	increment := 1
	if errorType == ErrorQuota {
		increment = 3
	}

	switch cb.state {
	case CircuitClosed:
		cb.failureCount += increment
		if cb.failureCount >= cb.failureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetMetrics() (state CircuitState, failures, successes int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failureCount, cb.successCount
}

func (cb *CircuitBreaker) transitionTo(next CircuitState) {
	cb.state = next
	cb.failureCount = 0
	cb.successCount = 0
	cb.lastStateChange = time.Now()
}

// Pre-compiled patterns for extracting a suggested wait from free-form
// quota-error text, for providers (or error-string fallbacks) that don't
// expose a structured Retry-After.
var (
	retryAfterTryAgainRegex = regexp.MustCompile(`(?i)try again in (\d+)\s*(second|minute|hour)s?`)
	retryAfterWaitRegex     = regexp.MustCompile(`(?i)wait (\d+)\s*(second|minute|hour)s?`)
	retryAfterColonRegex    = regexp.MustCompile(`(?i)retry[_-]?after["']?\s*:\s*(\d+)`)
)

// ParseRetryAfterFromMessage extracts a wait duration from error message
// text such as "try again in 12 minutes" or `"retry_after": 720`.
func ParseRetryAfterFromMessage(msg string) time.Duration {
	if d := matchDurationWithUnit(retryAfterTryAgainRegex, msg); d > 0 {
		return d
	}
	if d := matchDurationWithUnit(retryAfterWaitRegex, msg); d > 0 {
		return d
	}
	if matches := retryAfterColonRegex.FindStringSubmatch(msg); len(matches) == 2 {
		if seconds, err := strconv.Atoi(matches[1]); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func matchDurationWithUnit(re *regexp.Regexp, msg string) time.Duration {
	matches := re.FindStringSubmatch(msg)
	if len(matches) != 3 {
		return 0
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	switch strings.ToLower(matches[2]) {
	case "second":
		return time.Duration(value) * time.Second
	case "minute":
		return time.Duration(value) * time.Minute
	case "hour":
		return time.Duration(value) * time.Hour
	}
	return 0
}

// RetryWithBackoff executes fn with circuit breaking, error-type-aware
// retry, and exponential backoff. A quota error waits out the suggested
// reset time instead of backing off exponentially, and fails immediately
// when that wait exceeds cfg.MaxQuotaWait; auth and invalid-request errors
// fail immediately.
//
// Providers supply their own Classifier (status codes and error shapes
// differ per API) and reuse this loop instead of reimplementing backoff.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, cb *CircuitBreaker, classify Classifier, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if cb != nil {
			if err := cb.Allow(); err != nil {
				state, failures, _ := cb.GetMetrics()
				fmt.Fprintf(os.Stderr, "model provider %s blocked by circuit breaker (state=%s, failures=%d)\n", operation, state, failures)
				return fmt.Errorf("%s failed: %w", operation, err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if cb != nil {
				cb.RecordSuccess()
			}
			return nil
		}
		lastErr = err

		errorType, quotaWait := classify(err)
		if cb != nil {
			if errorType != ErrorAuth && errorType != ErrorInvalid {
				cb.recordFailureWithType(errorType)
			}
		}

		switch errorType {
		case ErrorAuth, ErrorInvalid:
			return err

		case ErrorQuota:
			if quotaWait > cfg.MaxQuotaWait {
				return fmt.Errorf("%s failed: %w (quota wait %v exceeds max %v)", operation, err, quotaWait, cfg.MaxQuotaWait)
			}
			if attempt == cfg.MaxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
			}
			select {
			case <-time.After(quotaWait):
				continue
			case <-ctx.Done():
				return fmt.Errorf("%s failed: context canceled during quota wait: %w", operation, ctx.Err())
			}

		case ErrorTransient, ErrorUnknown:
			if attempt == cfg.MaxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
			}
			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
				if backoff > cfg.MaxBackoff {
					backoff = cfg.MaxBackoff
				}
			case <-ctx.Done():
				return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, ctx.Err())
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.MaxRetries+1, lastErr)
}
