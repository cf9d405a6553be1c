package errors

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/codesweep/codesweep/pkg/clock"
)

// RetryConfig shapes the backoff schedule for retried operations
type RetryConfig struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultRetryConfig returns the schedule used when a caller has no
// specific requirements: three attempts backing off from one second
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:         3,
		InitialInterval:     time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.1,
	}
}

// RetryableFunc is retried until it succeeds or the schedule runs out
type RetryableFunc func() error

// ShouldRetryFunc decides whether an error is worth another attempt
type ShouldRetryFunc func(error) bool

// DefaultShouldRetry retries errors this package flagged recoverable.
// Unstructured errors are never retried.
func DefaultShouldRetry(err error) bool {
	return err != nil && IsRecoverable(err)
}

// Retry runs fn against the real clock. See RetryWithClock.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc, shouldRetry ShouldRetryFunc) error {
	return RetryWithClock(ctx, clock.NewRealClock(), config, fn, shouldRetry)
}

// RetryWithClock runs fn until it succeeds, the schedule is exhausted, the
// error is not retryable or ctx ends. The clock drives the waits so tests
// can run a schedule without sleeping.
func RetryWithClock(ctx context.Context, clk clock.Clock, config RetryConfig, fn RetryableFunc, shouldRetry ShouldRetryFunc) error {
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var lastErr error
	wait := config.InitialInterval

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return lastErr
		}
		if attempt == config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(wait):
		}
		wait = nextWait(config, wait)
	}

	return NewError(ErrorTypeSystem).
		WithMessage("operation failed after maximum retry attempts").
		WithCause(lastErr).
		WithSeverity(SeverityHigh).
		WithContext("max_attempts", config.MaxAttempts).
		WithSuggestion("Check the underlying error cause").
		Build()
}

// nextWait grows the wait by the configured multiplier, capped at
// MaxInterval. Jitter keeps parallel clients from retrying in lockstep.
func nextWait(config RetryConfig, wait time.Duration) time.Duration {
	next := time.Duration(float64(wait) * config.Multiplier)
	if next > config.MaxInterval {
		next = config.MaxInterval
	}

	maxJitter := int64(float64(next) * config.RandomizationFactor)
	if maxJitter <= 0 {
		return next
	}
	jitter, err := rand.Int(rand.Reader, big.NewInt(2*maxJitter))
	if err != nil {
		return next
	}
	return next + time.Duration(jitter.Int64()-maxJitter)
}

// RetryTransient retries fn up to maxAttempts times with a fast initial
// backoff, for operations whose failures are flagged recoverable
func RetryTransient(ctx context.Context, maxAttempts int, fn RetryableFunc) error {
	config := DefaultRetryConfig()
	config.MaxAttempts = maxAttempts
	config.InitialInterval = 500 * time.Millisecond

	return Retry(ctx, config, fn, DefaultShouldRetry)
}
