// Package cache holds recently crawled per-engine results in memory so
// repeated identical queries skip the browser entirely. Synthetic
// (error-bearing) results are never cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/use-agent/serpcrawl/models"
)

// entry holds a cached engine result with its creation timestamp.
type entry struct {
	result    *models.EngineResult
	createdAt time.Time
}

// Cache is a simple in-memory cache for engine results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries.
// A background goroutine evicts entries older than 1 hour every
// 5 minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the engine, query, and result cap.
func Key(engine, query string, maxResults int) string {
	h := sha256.New()
	h.Write([]byte(engine))
	h.Write([]byte("|"))
	h.Write([]byte(query))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(maxResults)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result younger than maxAge. maxAge <= 0
// disables lookups entirely.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.EngineResult, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > maxAge {
		return nil, false
	}
	return e.result, true
}

// Set stores a result. Error-bearing (mock) results are refused so a
// transient browser failure never shadows later live crawls. If the
// cache is at capacity a random entry is evicted.
func (c *Cache) Set(key string, result *models.EngineResult) {
	if result == nil || result.Error != "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random in Go, so this evicts an arbitrary entry.
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    result,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
