package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/clock"
)

func TestResultCacheRoundTrip(t *testing.T) {
	cache := NewResultCache(time.Hour)
	actx := NewContext("proj-1", "module.py", "x = 1\n")
	result := NewResult("detector", "quality", actx)

	require.Nil(t, cache.Get("detector", actx))

	cache.Set("detector", actx, result)
	got := cache.Get("detector", actx)
	assert.Same(t, result, got, "memory tier returns the stored pointer")
}

func TestResultCacheKeyIncludesAnalyzerAndHash(t *testing.T) {
	cache := NewResultCache(time.Hour)
	actx := NewContext("proj-1", "module.py", "x = 1\n")
	result := NewResult("detector", "quality", actx)
	cache.Set("detector", actx, result)

	// A different analyzer name misses
	assert.Nil(t, cache.Get("other", actx))

	// A content change misses because the hash is part of the key
	changed := NewContext("proj-1", "module.py", "x = 2\n")
	assert.Nil(t, cache.Get("detector", changed))
}

func TestResultCacheExpiration(t *testing.T) {
	baseTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFakeClock(baseTime)
	cache := NewResultCacheWithClock(10*time.Minute, "", fakeClock)

	actx := NewContext("proj-1", "module.py", "x = 1\n")
	result := NewResult("detector", "quality", actx)
	cache.Set("detector", actx, result)

	require.NotNil(t, cache.Get("detector", actx))

	fakeClock.Advance(11 * time.Minute)
	assert.Nil(t, cache.Get("detector", actx), "expired entries are never returned")
}

func TestResultCacheInvalidateAndClear(t *testing.T) {
	cache := NewResultCache(time.Hour)
	actx := NewContext("proj-1", "module.py", "x = 1\n")
	other := NewContext("proj-1", "other.py", "y = 2\n")

	cache.Set("detector", actx, NewResult("detector", "quality", actx))
	cache.Set("detector", other, NewResult("detector", "quality", other))

	cache.Invalidate("detector", actx)
	assert.Nil(t, cache.Get("detector", actx))
	assert.NotNil(t, cache.Get("detector", other))

	cache.Clear()
	assert.Nil(t, cache.Get("detector", other))
	assert.Equal(t, 0, cache.Stats().MemoryEntries)
}

func TestResultCacheDiskTier(t *testing.T) {
	dir := t.TempDir()
	actx := NewContext("proj-1", "module.py", "x = 1\n")

	first := NewResultCacheWithDir(time.Hour, dir)
	stored := NewResult("detector", "quality", actx)
	stored.SetMetric("total_lines", 2)
	first.Set("detector", actx, stored)

	// A second cache over the same directory restores the entry
	second := NewResultCacheWithDir(time.Hour, dir)
	restored := second.Get("detector", actx)
	require.NotNil(t, restored)
	assert.Equal(t, "detector", restored.AnalyzerName)
	assert.Equal(t, float64(2), restored.Metrics["total_lines"])
}

func TestResultCacheStats(t *testing.T) {
	cache := NewResultCache(time.Hour)
	actx := NewContext("proj-1", "module.py", "x = 1\n")

	cache.Get("detector", actx)
	cache.Set("detector", actx, NewResult("detector", "quality", actx))
	cache.Get("detector", actx)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.MemoryEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}

func TestResultCacheCleanupExpired(t *testing.T) {
	baseTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFakeClock(baseTime)
	cache := NewResultCacheWithClock(10*time.Minute, "", fakeClock)

	actx := NewContext("proj-1", "module.py", "x = 1\n")
	cache.Set("detector", actx, NewResult("detector", "quality", actx))
	require.Equal(t, 1, cache.Stats().MemoryEntries)

	fakeClock.Advance(time.Hour)
	cache.CleanupExpired()
	assert.Equal(t, 0, cache.Stats().MemoryEntries)
}
