package engine

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	engineName string
	expiresAt  time.Time
}

// Memory remembers which engine last produced an accepted page for a
// route. A route is the host plus the first two path segments, so every
// search on www.google.com/maps/search shares one entry while place pages
// get their own.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewMemory creates a Memory whose entries live for ttl and starts a
// goroutine that prunes expired entries every hour.
func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get returns the remembered engine for rawURL's route, or "".
func (m *Memory) Get(rawURL string) string {
	key := routeKey(rawURL)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return ""
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return ""
	}
	return e.engineName
}

// Set records engineName as the winner for rawURL's route.
func (m *Memory) Set(rawURL, engineName string) {
	m.mu.Lock()
	m.entries[routeKey(rawURL)] = memoryEntry{
		engineName: engineName,
		expiresAt:  time.Now().Add(m.ttl),
	}
	m.mu.Unlock()
}

// Forget drops the entry for rawURL's route.
func (m *Memory) Forget(rawURL string) {
	m.mu.Lock()
	delete(m.entries, routeKey(rawURL))
	m.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (m *Memory) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.prune(time.Now())
		}
	}
}

func (m *Memory) prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// routeKey reduces a URL to host plus its first two path segments.
func routeKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 2 {
		segs = segs[:2]
	}
	key := strings.ToLower(u.Hostname())
	for _, s := range segs {
		if s != "" {
			key += "/" + s
		}
	}
	return key
}
