package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/co-fun/mapscontacts/engine"
	"github.com/co-fun/mapscontacts/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// captureTimeout bounds the final HTML capture when the request deadline
// ran out while scrolling.
const captureTimeout = 5 * time.Second

// navigationStatusScript reads the document's HTTP status without CDP
// network listeners, which conflict with request hijacking.
const navigationStatusScript = `() => {
	try {
		const entries = performance.getEntriesByType("navigation");
		if (entries.length > 0) return entries[0].responseStatus || 0;
	} catch (e) {}
	return 0;
}`

// Render loads a results page in a pooled browser tab, scrolls its feed
// and returns the rendered HTML. It is the browser engines' RenderFunc.
//
// Lifecycle:
//
//  1. Timeout guard      – hard deadline on the entire operation
//  2. Acquire page       – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup     – about:blank + return or retire the tab
//  4. Stealth, headers   – installed before navigation so they apply to it
//  5. Hijack             – block heavy resources and trackers
//  6. Navigate           – then dismiss the consent wall
//  7. Wait for feed      – div[role="feed"], bounded by FeedTimeout
//  8. Scroll             – until the feed stops growing or rounds run out
//  9. Capture            – page.HTML() + document.title
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.clampTimeout(req.Timeout))
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(s.newPage)
	if err != nil {
		s.pagePool.Put(nil)
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}
	health := s.healthOf(page)

	// ── 3. Cleanup: uses the original page so it runs after ctx expiry ─
	succeeded := false
	defer func() {
		if succeeded {
			health.RecordSuccess()
		} else {
			health.RecordFailure()
		}
		s.releasePage(page, health)
	}()

	// ── 4. Stealth and extra headers ──────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	headers := map[string]string{"Accept-Language": s.browserCfg.AcceptLanguage}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	// ── 5. Hijack ─────────────────────────────────────────────────────
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx)

	// ── 6. Navigate ───────────────────────────────────────────────────
	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to search page failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding", "error", err)
	}
	if acceptConsent(p) {
		slog.Debug("consent wall dismissed", "url", req.URL)
	}

	// ── 7. Wait for the results feed ──────────────────────────────────
	scrolls := 0
	if err := waitForFeed(p, s.scraperCfg.FeedTimeout); err != nil {
		// No feed: an empty search or a single-place redirect. Capture anyway.
		slog.Debug("results feed not found", "url", req.URL, "error", err)
	} else {
		// ── 8. Scroll ─────────────────────────────────────────────────
		scrolls, err = scrollFeed(ctx, p, req.ScrollRounds, s.scraperCfg.ScrollPause)
		if err != nil {
			slog.Warn("feed scrolling interrupted, keeping loaded cards",
				"url", req.URL, "scrolls", scrolls, "error", err)
		}
	}

	// ── 9. Capture ────────────────────────────────────────────────────
	capture := p
	if ctx.Err() != nil {
		capture = page.Timeout(captureTimeout)
	}
	rawHTML, err := capture.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to capture page HTML")
	}
	title := evalStringOrEmpty(capture, `() => document.title`)
	finalURL := evalStringOrEmpty(capture, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	statusCode := 0
	if res, err := capture.Eval(navigationStatusScript); err == nil {
		statusCode = res.Value.Int()
	}

	succeeded = true
	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      title,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		Scrolls:    scrolls,
	}, nil
}

func (s *Scraper) newPage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	s.health.Store(page, engine.NewPageHealth())
	return page, nil
}

func (s *Scraper) healthOf(page *rod.Page) *engine.PageHealth {
	if h, ok := s.health.Load(page); ok {
		return h.(*engine.PageHealth)
	}
	h := engine.NewPageHealth()
	s.health.Store(page, h)
	return h
}

// releasePage blanks the tab and returns it to the pool, or closes it and
// frees its slot when it is due for retirement.
func (s *Scraper) releasePage(page *rod.Page, health *engine.PageHealth) {
	if health.ShouldRetire() {
		slog.Info("retiring browser page")
		s.health.Delete(page)
		_ = page.Close()
		s.pagePool.Put(nil)
		return
	}
	if err := page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	s.pagePool.Put(page)
}

func (s *Scraper) clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		d = s.scraperCfg.DefaultTimeout
	}
	if s.scraperCfg.MaxTimeout > 0 && d > s.scraperCfg.MaxTimeout {
		d = s.scraperCfg.MaxTimeout
	}
	return d
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		if v != "" {
			m[k] = gson.New(v)
		}
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
