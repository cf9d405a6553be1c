package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codesweep/codesweep/pkg/clock"
	"github.com/codesweep/codesweep/pkg/logger"
)

// ResultCache stores analyzer results keyed by (analyzer, file path, content
// hash). Because the content hash is part of the key, a file edit naturally
// misses the cache; stale entries are only ever dropped by expiration.
// The memory tier returns the identical *Result pointer that was stored.
// An optional disk tier persists entries across processes.
type ResultCache struct {
	clock            clock.Clock
	expiration       time.Duration
	cacheDir         string
	memoryCache      map[string]*cacheEntry
	maxMemoryEntries int
	hits             int64
	misses           int64
	mutex            sync.RWMutex
	logger           *logger.Logger
}

type cacheEntry struct {
	Key        string    `json:"key"`
	Result     *Result   `json:"result"`
	FileHash   string    `json:"file_hash"`
	Timestamp  time.Time `json:"timestamp"`
	Expiration time.Time `json:"expiration"`
}

// CacheStats describes the current cache population
type CacheStats struct {
	MemoryEntries int     `json:"memory_entries"`
	DiskEntries   int     `json:"disk_entries"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
}

// NewResultCache creates a memory-only result cache
func NewResultCache(expiration time.Duration) *ResultCache {
	return NewResultCacheWithClock(expiration, "", clock.NewRealClock())
}

// NewResultCacheWithDir creates a result cache with a disk tier under cacheDir
func NewResultCacheWithDir(expiration time.Duration, cacheDir string) *ResultCache {
	return NewResultCacheWithClock(expiration, cacheDir, clock.NewRealClock())
}

// NewResultCacheWithClock creates a result cache with a custom clock
func NewResultCacheWithClock(expiration time.Duration, cacheDir string, clk clock.Clock) *ResultCache {
	cache := &ResultCache{
		clock:            clk,
		expiration:       expiration,
		cacheDir:         cacheDir,
		memoryCache:      make(map[string]*cacheEntry),
		maxMemoryEntries: 256,
		logger:           logger.GetLogger().WithPrefix("cache"),
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0750); err != nil {
			cache.logger.Warn("could not create cache directory %s: %v", cacheDir, err)
			cache.cacheDir = ""
		} else {
			cache.loadFromDisk()
		}
	}

	return cache
}

// Get retrieves the cached result for an analyzer and context, or nil on miss
func (rc *ResultCache) Get(analyzerName string, actx *Context) *Result {
	key := rc.generateKey(analyzerName, actx)

	rc.mutex.RLock()
	entry, exists := rc.memoryCache[key]
	if exists && rc.isValid(entry) {
		rc.mutex.RUnlock()
		rc.recordHit()
		return entry.Result
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Double-check: another goroutine may have filled the entry between locks
	if entry, exists := rc.memoryCache[key]; exists {
		if rc.isValid(entry) {
			rc.hits++
			return entry.Result
		}
		delete(rc.memoryCache, key)
	}

	if entry := rc.loadFromDiskByKey(key); entry != nil {
		if rc.isValid(entry) {
			rc.memoryCache[key] = entry
			rc.evictOldMemoryEntries()
			rc.hits++
			return entry.Result
		}
		rc.removeFromDisk(key)
	}

	rc.misses++
	return nil
}

// Set stores an analyzer result for the context's current content hash
func (rc *ResultCache) Set(analyzerName string, actx *Context, result *Result) {
	if result == nil {
		return
	}

	key := rc.generateKey(analyzerName, actx)
	entry := &cacheEntry{
		Key:        key,
		Result:     result,
		FileHash:   actx.FileHash,
		Timestamp:  rc.clock.Now(),
		Expiration: rc.clock.Now().Add(rc.expiration),
	}

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	rc.memoryCache[key] = entry
	rc.evictOldMemoryEntries()
	rc.saveToDisk(entry)
}

// Invalidate removes the cached result for an analyzer and context
func (rc *ResultCache) Invalidate(analyzerName string, actx *Context) {
	key := rc.generateKey(analyzerName, actx)

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	delete(rc.memoryCache, key)
	rc.removeFromDisk(key)
}

// Clear removes every cached entry from memory and disk
func (rc *ResultCache) Clear() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	rc.memoryCache = make(map[string]*cacheEntry)
	rc.hits = 0
	rc.misses = 0

	if rc.cacheDir == "" {
		return
	}
	if err := os.RemoveAll(rc.cacheDir); err != nil {
		rc.logger.Warn("could not clear disk cache: %v", err)
	}
	if err := os.MkdirAll(rc.cacheDir, 0750); err != nil {
		rc.logger.Warn("could not recreate cache directory: %v", err)
		rc.cacheDir = ""
	}
}

// CleanupExpired removes expired entries from memory and disk
func (rc *ResultCache) CleanupExpired() {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	now := rc.clock.Now()
	for key, entry := range rc.memoryCache {
		if now.After(entry.Expiration) {
			delete(rc.memoryCache, key)
		}
	}

	if rc.cacheDir == "" {
		return
	}
	files, err := filepath.Glob(filepath.Join(rc.cacheDir, "*.json"))
	if err != nil {
		return
	}
	for _, file := range files {
		if entry := rc.loadCacheFile(file); entry != nil && now.After(entry.Expiration) {
			_ = os.Remove(file) //nolint:errcheck // cleanup is best-effort
		}
	}
}

// Stats returns hit/miss counters and entry counts
func (rc *ResultCache) Stats() CacheStats {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	stats := CacheStats{
		MemoryEntries: len(rc.memoryCache),
		DiskEntries:   rc.countDiskEntries(),
		Hits:          rc.hits,
		Misses:        rc.misses,
	}
	if total := rc.hits + rc.misses; total > 0 {
		stats.HitRate = float64(rc.hits) / float64(total)
	}
	return stats
}

func (rc *ResultCache) recordHit() {
	rc.mutex.Lock()
	rc.hits++
	rc.mutex.Unlock()
}

func (rc *ResultCache) generateKey(analyzerName string, actx *Context) string {
	hasher := sha256.New()
	hasher.Write([]byte(analyzerName))
	hasher.Write([]byte{0})
	hasher.Write([]byte(actx.FilePath))
	hasher.Write([]byte{0})
	hasher.Write([]byte(actx.FileHash))
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func (rc *ResultCache) isValid(entry *cacheEntry) bool {
	return rc.clock.Now().Before(entry.Expiration)
}

func (rc *ResultCache) evictOldMemoryEntries() {
	if len(rc.memoryCache) <= rc.maxMemoryEntries {
		return
	}

	type entryAge struct {
		key       string
		timestamp time.Time
	}

	var entries []entryAge
	for key, entry := range rc.memoryCache {
		entries = append(entries, entryAge{key: key, timestamp: entry.Timestamp})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})

	// Remove a few extra so eviction does not run on every insert
	entriesToRemove := len(rc.memoryCache) - rc.maxMemoryEntries + 8
	for i := 0; i < entriesToRemove && i < len(entries); i++ {
		delete(rc.memoryCache, entries[i].key)
	}
}

func (rc *ResultCache) saveToDisk(entry *cacheEntry) {
	if rc.cacheDir == "" {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		rc.logger.Warn("could not marshal cache entry: %v", err)
		return
	}

	filePath := filepath.Join(rc.cacheDir, entry.Key+".json")
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		rc.logger.Warn("could not write cache file: %v", err)
	}
}

func (rc *ResultCache) loadFromDisk() {
	files, err := filepath.Glob(filepath.Join(rc.cacheDir, "*.json"))
	if err != nil {
		return
	}

	for _, file := range files {
		if entry := rc.loadCacheFile(file); entry != nil {
			if rc.clock.Now().Before(entry.Expiration) {
				rc.memoryCache[entry.Key] = entry
			} else {
				_ = os.Remove(file) //nolint:errcheck // expired file cleanup is best-effort
			}
		}
	}

	rc.evictOldMemoryEntries()
}

func (rc *ResultCache) loadFromDiskByKey(key string) *cacheEntry {
	if rc.cacheDir == "" {
		return nil
	}
	return rc.loadCacheFile(filepath.Join(rc.cacheDir, key+".json"))
}

func (rc *ResultCache) loadCacheFile(filePath string) *cacheEntry {
	// #nosec G304 - filePath is constructed from the configured cache directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(filePath) //nolint:errcheck // drop corrupted entries
		return nil
	}

	return &entry
}

func (rc *ResultCache) removeFromDisk(key string) {
	if rc.cacheDir == "" {
		return
	}
	_ = os.Remove(filepath.Join(rc.cacheDir, key+".json")) //nolint:errcheck // file may already be gone
}

func (rc *ResultCache) countDiskEntries() int {
	if rc.cacheDir == "" {
		return 0
	}
	files, err := filepath.Glob(filepath.Join(rc.cacheDir, "*.json"))
	if err != nil {
		return 0
	}
	return len(files)
}
