// Package scraper drives a headless Chromium to load Google Maps search
// results, scroll the results feed and hand back the rendered HTML.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/co-fun/mapscontacts/config"
	"github.com/co-fun/mapscontacts/engine"
	"github.com/co-fun/mapscontacts/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// Fetch modes accepted in requests.
const (
	ModeAuto    = "auto"
	ModeBrowser = "browser"
	ModeHTTP    = "http"
)

// Scraper manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	health      sync.Map // *rod.Page -> *engine.PageHealth
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
	dispatcher  *engine.Dispatcher
}

// NewScraper launches a headless browser and initialises the reusable page pool.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), browserCfg.AcceptLanguage)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)
	return &Scraper{
		browser:    browser,
		pagePool:   rod.NewPagePool(browserCfg.MaxPages),
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
	}, nil
}

// SetDispatcher installs the multi-engine dispatcher. Without one every
// fetch renders directly in the browser.
func (s *Scraper) SetDispatcher(d *engine.Dispatcher) {
	s.dispatcher = d
}

// Fetch loads a search results page using mode ("auto", "browser" or
// "http"). Errors are always *models.ScrapeError.
func (s *Scraper) Fetch(ctx context.Context, req *engine.FetchRequest, mode string) (*engine.FetchResult, error) {
	timeout := s.clampTimeout(req.Timeout)
	r := *req
	r.Timeout = timeout
	if r.ScrollRounds < 0 {
		r.ScrollRounds = s.scraperCfg.ScrollRounds
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var (
		result *engine.FetchResult
		err    error
	)
	switch {
	case mode == ModeHTTP:
		if s.dispatcher == nil || s.dispatcher.Engine(ModeHTTP) == nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "http fetch mode is disabled on this server", nil)
		}
		r.Only = ModeHTTP
		result, err = s.dispatcher.Dispatch(ctx, &r)
	case s.dispatcher == nil:
		result, err = s.Render(ctx, &r)
		if err == nil {
			result.EngineName = "rod"
		}
	case mode == ModeBrowser:
		r.Only = "rod"
		if r.Stealth {
			r.Only = "rod-stealth"
		}
		result, err = s.dispatcher.Dispatch(ctx, &r)
	default:
		result, err = s.dispatcher.Dispatch(ctx, &r)
	}
	if err != nil {
		slog.Warn("fetch failed", "url", req.URL, "mode", mode, "error", err)
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, categorizeError(err, "failed to load search page")
	}

	slog.Info("search page fetched", "url", req.URL, "engine", result.EngineName,
		"scrolls", result.Scrolls, "ms", time.Since(start).Milliseconds())
	return result, nil
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	s.browser.MustClose()
	slog.Info("scraper shutdown complete")
}
