// Package cache keeps recently collected listing sets in memory so repeat
// questions and exports about the same search skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/co-fun/mapscontacts/models"
)

// Entry is one collected, sorted listing set.
type Entry struct {
	Listings   []models.Listing
	SourceURL  string
	EngineUsed string
	CreatedAt  time.Time
}

// Cache is an in-memory listing cache. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*Entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
	once       sync.Once
}

// New creates a Cache holding at most maxEntries sets. A background
// goroutine evicts entries older than ttl every five minutes.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*Entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Key identifies a collection by its search URL and scroll budget. A
// negative scroll stands for the server default.
func Key(sourceURL string, scroll int) string {
	h := sha256.New()
	h.Write([]byte(sourceURL))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(scroll)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry for key if it is younger than maxAgeMs
// milliseconds. maxAgeMs <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*Entry, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Since(e.CreatedAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return e, true
}

// Set stores a copy of listings under key, evicting the oldest entry when
// the cache is full.
func (c *Cache) Set(key, sourceURL, engineUsed string, listings []models.Listing) {
	e := &Entry{
		Listings:   append([]models.Listing(nil), listings...),
		SourceURL:  sourceURL,
		EngineUsed: engineUsed,
		CreatedAt:  time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.store[key]; !exists && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		c.evictOldest()
	}
	c.store[key] = e
}

// Len returns the number of cached sets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range c.store {
		if oldestKey == "" || e.CreatedAt.Before(oldest) {
			oldestKey, oldest = k, e.CreatedAt
		}
	}
	delete(c.store, oldestKey)
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *Cache) sweep(now time.Time) {
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.CreatedAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
