package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/co-fun/mapscontacts/cache"
	"github.com/co-fun/mapscontacts/engine"
	"github.com/co-fun/mapscontacts/extractor"
	"github.com/co-fun/mapscontacts/listing"
	"github.com/co-fun/mapscontacts/models"
	"github.com/co-fun/mapscontacts/scraper"
)

// Fetcher loads a search results page. *scraper.Scraper implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req *engine.FetchRequest, mode string) (*engine.FetchResult, error)
}

// Collector turns a ListingSource into a sorted listing set. It is shared
// by every endpoint that accepts a source.
type Collector struct {
	fetcher Fetcher
	cache   *cache.Cache
}

// NewCollector creates a Collector. fetcher nil disables live collection;
// cc nil disables caching.
func NewCollector(fetcher Fetcher, cc *cache.Cache) *Collector {
	return &Collector{fetcher: fetcher, cache: cc}
}

// Collected is the outcome of one collection.
type Collected struct {
	Listings     []models.Listing
	SourceURL    string
	EngineUsed   string
	CacheStatus  string
	NavigationMs int64
	ExtractionMs int64
}

// Collect resolves src to listings sorted by score, review count and name.
func (col *Collector) Collect(ctx context.Context, src *models.ListingSource) (*Collected, error) {
	if se := src.Validate(); se != nil {
		return nil, se
	}

	switch {
	case src.Listings != nil:
		return &Collected{Listings: listing.Sort(src.Listings), EngineUsed: "input"}, nil
	case src.HTML != "":
		if src.PageURL != "" && !scraper.IsSearchPage(src.PageURL) {
			return nil, notASearchPage()
		}
		return col.extract(src.HTML, src.PageURL, "input", 0)
	}

	searchURL := src.URL
	if src.Query != "" {
		searchURL = scraper.BuildSearchURL(src.Query, src.Latitude, src.Longitude, src.Zoom)
	}
	if !scraper.IsSearchPage(searchURL) {
		return nil, notASearchPage()
	}
	if col.fetcher == nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "live collection is not available on this server", nil)
	}

	scroll := -1
	if src.Scroll != nil {
		scroll = *src.Scroll
	}

	key := cache.Key(searchURL, scroll)
	if col.cache != nil {
		if e, hit := col.cache.Get(key, src.MaxAge); hit {
			slog.Debug("listing cache hit", "url", searchURL, "total", len(e.Listings))
			return &Collected{
				Listings:    e.Listings,
				SourceURL:   e.SourceURL,
				EngineUsed:  e.EngineUsed,
				CacheStatus: "hit",
			}, nil
		}
	}

	navStart := time.Now()
	result, err := col.fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:          searchURL,
		Timeout:      time.Duration(src.Timeout) * time.Second,
		Stealth:      src.Stealth,
		ScrollRounds: scroll,
	}, src.FetchMode)
	navigationMs := time.Since(navStart).Milliseconds()
	if err != nil {
		return &Collected{SourceURL: searchURL, NavigationMs: navigationMs}, err
	}

	pageURL := result.FinalURL
	if pageURL == "" {
		pageURL = searchURL
	}
	out, err := col.extract(result.HTML, pageURL, result.EngineName, navigationMs)
	if err != nil {
		return out, err
	}
	out.SourceURL = searchURL

	if col.cache != nil && src.MaxAge > 0 {
		col.cache.Set(key, searchURL, result.EngineName, out.Listings)
		out.CacheStatus = "miss"
	}
	return out, nil
}

func (col *Collector) extract(rawHTML, pageURL, engineName string, navigationMs int64) (*Collected, error) {
	start := time.Now()
	records, err := extractor.ExtractHTML(rawHTML, pageURL)
	extractionMs := time.Since(start).Milliseconds()
	if err != nil {
		return &Collected{NavigationMs: navigationMs, ExtractionMs: extractionMs},
			models.NewScrapeError(models.ErrCodeInternal, "failed to parse results page", err)
	}
	slog.Debug("listings extracted", "total", len(records), "engine", engineName)
	return &Collected{
		Listings:     listing.Sort(records),
		SourceURL:    pageURL,
		EngineUsed:   engineName,
		NavigationMs: navigationMs,
		ExtractionMs: extractionMs,
	}, nil
}

func notASearchPage() *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeNotASearchPage, scraper.SearchHint, nil)
}
