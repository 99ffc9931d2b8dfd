// Package engine fetches Google Maps result pages through a set of
// interchangeable engines raced by a Dispatcher.
package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a results page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool

	// ScrollRounds is the feed scroll budget for browser engines.
	// Zero keeps the first page of results only; negative means the
	// server default.
	ScrollRounds int

	// Only restricts dispatch to the named engine.
	Only string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string

	// Scrolls is how many feed scrolls the browser performed.
	Scrolls int
}

// AcceptFunc decides whether a fetched page is usable. A non-nil error
// rejects the result and lets the dispatcher escalate.
type AcceptFunc func(*FetchResult) error
