package github

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codesweep/codesweep/pkg/clock"
)

// RateLimiter is a token bucket guarding GitHub API calls. The bucket
// starts full and refills at a steady rate, so bursts drain local tokens
// instead of tripping the server-side limit.
type RateLimiter struct {
	clock      clock.Clock
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a limiter allowing maxRequests per window
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(maxRequests, window, clock.NewRealClock())
}

// NewRateLimiterWithClock creates a limiter with an injectable clock so
// tests can advance time without sleeping
func NewRateLimiterWithClock(maxRequests int, window time.Duration, clk clock.Clock) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &RateLimiter{
		clock:      clk,
		tokens:     maxRequests,
		maxTokens:  maxRequests,
		refillRate: window / time.Duration(maxRequests),
		lastRefill: clk.Now(),
	}
}

// Wait blocks until a token is available or the context is canceled
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.TryTake() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.refillRate):
		}
	}
}

// TryTake takes a token without blocking, reporting whether one was available
func (r *RateLimiter) TryTake() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// refillLocked adds the tokens accrued since the last refill. Callers hold mu.
func (r *RateLimiter) refillLocked() {
	elapsed := r.clock.Since(r.lastRefill)
	accrued := int(elapsed / r.refillRate)
	if accrued <= 0 {
		return
	}

	r.tokens += accrued
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = r.clock.Now()
}

// Available returns the number of tokens currently in the bucket
func (r *RateLimiter) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	return r.tokens
}

// NextToken returns how long until another token accrues, zero when one is
// already available
func (r *RateLimiter) NextToken() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()
	if r.tokens > 0 {
		return 0
	}
	return r.refillRate - r.clock.Since(r.lastRefill)
}

// Reset refills the bucket to capacity
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = r.maxTokens
	r.lastRefill = r.clock.Now()
}

// String describes the limiter state for logs
func (r *RateLimiter) String() string {
	return fmt.Sprintf("RateLimiter{tokens: %d/%d, next: %v}", r.Available(), r.maxTokens, r.NextToken())
}
