// Package cache holds a small in-memory cache of completed lookups. Voter
// rolls change slowly, so a repeated national ID can skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/civiceg/voterlookup/models"
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.LookupResponse
	createdAt time.Time
}

// Cache is an in-memory TTL cache of lookup responses, safe for concurrent
// use. Only successful lookups are worth caching; failures are transient.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache holding up to maxEntries responses for ttl each.
// A background goroutine evicts expired entries every 5 minutes.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
	go c.cleanupLoop()
	return c
}

// Key hashes a national ID into a cache key, keeping identifiers out of
// the in-memory map keys.
func Key(nationalID string) string {
	h := sha256.Sum256([]byte(nationalID))
	return hex.EncodeToString(h[:])
}

// Get retrieves a cached response younger than the TTL.
func (c *Cache) Get(key string) (*models.LookupResponse, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. If the cache is at capacity a random entry is
// evicted to make room (map iteration is random in Go).
func (c *Cache) Set(key string, resp *models.LookupResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		response:  resp,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
