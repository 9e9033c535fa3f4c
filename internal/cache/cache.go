// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/pkg/models"
)

// Entry is one cached extraction response: the structured data a provider
// returned for a given (content, schema, instructions, model) key.
type Entry struct {
	Data        map[string]any
	ProviderTag string
}

// Cache is the interface for extraction-response caching implementations.
// The orchestration layer is agnostic to its presence; extractors consult
// and populate it internally.
type Cache interface {
	// Get retrieves a cached extraction by key.
	Get(key string) (*Entry, bool)

	// Set stores an extraction with the specified TTL. Existing keys are
	// updated; implementations may evict per their eviction strategy.
	Set(key string, entry *Entry, ttl time.Duration) error

	// Delete removes a cached extraction. No error for missing keys.
	Delete(key string) error

	// Clear removes all cached extractions.
	Clear() error

	// Stats reports entry count, sizes, and hit-rate counters.
	Stats() map[string]any

	// Close stops background goroutines and releases resources.
	Close()
}

type cacheEntry struct {
	Entry     *Entry
	Size      int64
	ExpiresAt time.Time
	Key       string // for LRU tracking
}

// MemoryCache implements in-memory extraction caching with LRU eviction.
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.RWMutex
	maxSize int64
	size    int64
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new in-memory cache with LRU eviction.
func NewMemoryCache(maxSizeBytes int64) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 100 * 1024 * 1024 // Default: 100MB
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ctx:     ctx,
		cancel:  cancel,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached extraction and marks it most recently used.
func (mc *MemoryCache) Get(key string) (*Entry, bool) {
	mc.mu.Lock() // write lock: Get mutates LRU order
	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	if time.Now().After(entry.ExpiresAt) {
		mc.misses++
		mc.mu.Unlock()
		go mc.Delete(key)
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++
	mc.mu.Unlock()

	log.Debug().Str("key", key).Msg("Extraction cache hit")
	return entry.Entry, true
}

// Set stores an extraction in cache with TTL.
func (mc *MemoryCache) Set(key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	size := estimateSize(entry)

	if element, exists := mc.store[key]; exists {
		old := element.Value.(*cacheEntry)
		mc.size -= old.Size

		element.Value = &cacheEntry{
			Entry:     entry,
			Size:      size,
			ExpiresAt: time.Now().Add(ttl),
			Key:       key,
		}
		mc.lruList.MoveToFront(element)
		mc.size += size

		log.Debug().
			Str("key", key).
			Dur("ttl", ttl).
			Int64("size_bytes", size).
			Msg("Updated cache entry")

		return nil
	}

	for mc.size+size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	element := mc.lruList.PushFront(&cacheEntry{
		Entry:     entry,
		Size:      size,
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
	})
	mc.store[key] = element
	mc.size += size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", size).
		Msg("Cached extraction")

	return nil
}

// Delete removes a cached extraction.
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		entry := element.Value.(*cacheEntry)
		mc.lruList.Remove(element)
		delete(mc.store, key)
		mc.size -= entry.Size
		log.Debug().Str("key", key).Msg("Deleted from cache")
	}

	return nil
}

// Clear removes all cached extractions and resets counters.
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.size = 0
	mc.hits = 0
	mc.misses = 0

	log.Debug().Msg("Cache cleared")
	return nil
}

// Close stops the background cleanup goroutine.
func (mc *MemoryCache) Close() {
	mc.cancel()
	log.Debug().Msg("Cache closed")
}

// evictLRU removes the least recently used entry (lock must be held).
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}

	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size

	log.Debug().Str("key", entry.Key).Msg("Evicted from cache (LRU)")
}

// cleanupExpired periodically removes expired entries.
func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()

			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				entry := element.Value.(*cacheEntry)

				if now.After(entry.ExpiresAt) {
					mc.lruList.Remove(element)
					delete(mc.store, entry.Key)
					mc.size -= entry.Size
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			log.Debug().Msg("Cache cleanup routine stopped")
			return
		}
	}
}

// Stats returns cache statistics including hit rate.
func (mc *MemoryCache) Stats() map[string]any {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	hitRate := 0.0
	total := mc.hits + mc.misses
	if total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return map[string]any{
		"entries":     mc.lruList.Len(),
		"size_bytes":  mc.size,
		"max_size":    mc.maxSize,
		"utilization": float64(mc.size) / float64(mc.maxSize) * 100,
		"hits":        mc.hits,
		"misses":      mc.misses,
		"hit_rate":    hitRate,
	}
}

// estimateSize roughly approximates an entry's memory footprint.
func estimateSize(entry *Entry) int64 {
	size := int64(len(entry.ProviderTag)) + 1024 // ~1KB struct/map overhead
	for k, v := range entry.Data {
		size += int64(len(k))
		if s, ok := v.(string); ok {
			size += int64(len(s))
		} else {
			size += 64
		}
	}
	return size
}

// Key derives the cache key for an extraction call: content, schema shape,
// instructions, and model all participate, so any change misses.
func Key(content string, schema models.Schema, instructions, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(instructions))
	for _, f := range schema {
		h.Write([]byte{0})
		h.Write([]byte(f.Name))
		h.Write([]byte{1})
		h.Write([]byte(f.Type))
	}
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
