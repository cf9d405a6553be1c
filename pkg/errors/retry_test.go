package errors

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/codesweep/codesweep/pkg/clock"
)

// immediateRetryConfig removes every wait so retry tests never sleep.
func immediateRetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{MaxAttempts: maxAttempts, Multiplier: 1.0}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())

	attempts := 0
	err := RetryWithClock(context.Background(), clk, immediateRetryConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return NetworkError(fmt.Errorf("temporary failure"))
		}
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Expected success after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	permanent := fmt.Errorf("permanent failure")

	attempts := 0
	err := RetryWithClock(context.Background(), clk, immediateRetryConfig(3), func() error {
		attempts++
		return permanent
	}, DefaultShouldRetry)

	if err != permanent {
		t.Errorf("Expected the permanent error back, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a permanent error, got %d", attempts)
	}
}

func TestRetryExhaustsSchedule(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())

	attempts := 0
	err := RetryWithClock(context.Background(), clk, immediateRetryConfig(3), func() error {
		attempts++
		return NetworkError(fmt.Errorf("still down"))
	}, DefaultShouldRetry)

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if err == nil {
		t.Fatal("Expected an error after the schedule ran out")
	}
	if !IsType(err, ErrorTypeSystem) {
		t.Errorf("Expected a system error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "maximum retry attempts") {
		t.Errorf("Expected the exhaustion message, got: %v", err)
	}
}

func TestRetryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, DefaultRetryConfig(), func() error {
		attempts++
		return nil
	}, nil)

	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if attempts != 0 {
		t.Errorf("Expected no attempts after cancellation, got %d", attempts)
	}
}

func TestRetryTransient(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	if err := RetryTransient(ctx, 3, func() error {
		attempts++
		return nil
	}); err != nil {
		t.Errorf("Expected immediate success, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}

	attempts = 0
	err := RetryTransient(ctx, 3, func() error {
		attempts++
		return fmt.Errorf("not flagged recoverable")
	})
	if err == nil {
		t.Error("Expected the failure to be returned")
	}
	if attempts != 1 {
		t.Errorf("Expected a permanent error to stop retries, got %d attempts", attempts)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts 3, got %d", config.MaxAttempts)
	}
	if config.InitialInterval != time.Second {
		t.Errorf("Expected InitialInterval 1s, got %v", config.InitialInterval)
	}
	if config.MaxInterval != 30*time.Second {
		t.Errorf("Expected MaxInterval 30s, got %v", config.MaxInterval)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("Expected Multiplier 2.0, got %f", config.Multiplier)
	}
}

func TestDefaultShouldRetry(t *testing.T) {
	if !DefaultShouldRetry(NetworkError(fmt.Errorf("timeout"))) {
		t.Error("Expected a recoverable error to be retried")
	}

	unrecoverable := NewError(ErrorTypeGitHub).WithMessage("not found").Build()
	if DefaultShouldRetry(unrecoverable) {
		t.Error("Expected an unrecoverable error not to be retried")
	}

	if DefaultShouldRetry(fmt.Errorf("plain error")) {
		t.Error("Expected an unstructured error not to be retried")
	}

	if DefaultShouldRetry(nil) {
		t.Error("Expected nil not to be retried")
	}
}

func TestNextWaitGrowthAndCap(t *testing.T) {
	config := RetryConfig{Multiplier: 2.0, MaxInterval: 3 * time.Second}

	if got := nextWait(config, time.Second); got != 2*time.Second {
		t.Errorf("Expected the wait to double to 2s, got %v", got)
	}
	if got := nextWait(config, 2*time.Second); got != 3*time.Second {
		t.Errorf("Expected the wait to cap at 3s, got %v", got)
	}
}

func TestNextWaitJitterBounds(t *testing.T) {
	config := RetryConfig{Multiplier: 2.0, MaxInterval: time.Minute, RandomizationFactor: 0.5}

	// Doubling 1s gives 2s with up to 1s of jitter either way.
	for i := 0; i < 32; i++ {
		got := nextWait(config, time.Second)
		if got < time.Second || got > 3*time.Second {
			t.Fatalf("Expected jittered wait within [1s, 3s], got %v", got)
		}
	}
}
