package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a results page in the browser. It is injected from
// main so the engine package does not import the scraper.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// BrowserEngine renders pages through the rod page pool. The stealth
// variant always injects the stealth script and registers as
// "rod-stealth".
type BrowserEngine struct {
	render       RenderFunc
	forceStealth bool
	name         string
}

// NewBrowserEngine creates a BrowserEngine backed by render.
func NewBrowserEngine(render RenderFunc, forceStealth bool) *BrowserEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &BrowserEngine{render: render, forceStealth: forceStealth, name: name}
}

func (e *BrowserEngine) Name() string { return e.name }

func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: render func not configured", e.name)
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	result.EngineName = e.name
	return result, nil
}
