package engine

import (
	"math"
	"sync"
	"time"
)

// Retirement thresholds for pooled browser pages.
const (
	maxPageErrScore = 3.0
	maxPageUses     = 50
	maxPageAge      = 50 * time.Minute
)

// PageHealth tracks how a pooled browser tab has been doing. A tab that
// keeps failing, has served many searches, or is old gets retired and
// replaced by a fresh one.
type PageHealth struct {
	mu       sync.Mutex
	errScore float64
	useCount int
	created  time.Time
}

// NewPageHealth starts tracking a freshly created page.
func NewPageHealth() *PageHealth {
	return &PageHealth{created: time.Now()}
}

// RecordSuccess lowers the error score by 0.5, never below zero.
func (h *PageHealth) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore = math.Max(0, h.errScore-0.5)
}

// RecordFailure raises the error score by one.
func (h *PageHealth) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore++
}

// ShouldRetire reports whether the page has crossed any retirement threshold.
func (h *PageHealth) ShouldRetire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errScore >= maxPageErrScore ||
		h.useCount >= maxPageUses ||
		time.Since(h.created) >= maxPageAge
}
