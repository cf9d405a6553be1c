package github

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/clock"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(100, time.Hour)

	assert.Equal(t, 100, rl.maxTokens)
	assert.Equal(t, 100, rl.tokens)
	assert.Equal(t, time.Hour/100, rl.refillRate)
}

func TestNewRateLimiterClampsCapacity(t *testing.T) {
	rl := NewRateLimiter(0, time.Hour)

	assert.Equal(t, 1, rl.maxTokens)
	assert.Equal(t, time.Hour, rl.refillRate)
}

func TestTryTakeExhaustsBucket(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.TryTake())
	assert.True(t, rl.TryTake())
	assert.False(t, rl.TryTake())
	assert.Equal(t, 0, rl.Available())
}

func TestRefillAccruesTokensOverTime(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiterWithClock(10, 100*time.Millisecond, fake)

	for i := 0; i < 10; i++ {
		require.True(t, rl.TryTake())
	}
	assert.Equal(t, 0, rl.Available())

	// One token accrues every 10ms, so 50ms buys back five.
	fake.Advance(50 * time.Millisecond)
	assert.Equal(t, 5, rl.Available())

	// A long idle stretch refills to capacity, never beyond it.
	fake.Advance(time.Minute)
	assert.Equal(t, 10, rl.Available())
}

func TestNextTokenCountsDownToRefill(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiterWithClock(1, 100*time.Millisecond, fake)

	assert.Equal(t, time.Duration(0), rl.NextToken())

	require.True(t, rl.TryTake())
	assert.Equal(t, 100*time.Millisecond, rl.NextToken())

	fake.Advance(40 * time.Millisecond)
	assert.Equal(t, 60*time.Millisecond, rl.NextToken())

	fake.Advance(60 * time.Millisecond)
	assert.Equal(t, time.Duration(0), rl.NextToken())
	assert.True(t, rl.TryTake())
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-sensitive test in short mode")
	}

	rl := NewRateLimiter(1, 100*time.Millisecond)
	require.True(t, rl.TryTake())

	start := time.Now()
	err := rl.Wait(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestWaitHonorsCancellation(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	require.True(t, rl.TryTake())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitReturnsImmediatelyWhenTokensRemain(t *testing.T) {
	rl := NewRateLimiter(5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, rl.Wait(ctx))
	assert.Equal(t, 4, rl.Available())
}

func TestResetRestoresFullBucket(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiterWithClock(3, time.Hour, fake)

	for i := 0; i < 3; i++ {
		require.True(t, rl.TryTake())
	}
	assert.Equal(t, 0, rl.Available())

	rl.Reset()
	assert.Equal(t, 3, rl.Available())
}

func TestRateLimiterString(t *testing.T) {
	rl := NewRateLimiter(10, time.Hour)
	require.True(t, rl.TryTake())

	s := rl.String()
	assert.Contains(t, s, "9/10")
}
