package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	searchBaseURL = "https://www.google.com/maps/search/"
	searchMarker  = "://www.google.com/maps/search"

	// DefaultZoom is used when coordinates are given without a zoom level.
	DefaultZoom = 13

	// SearchHint is shown when a URL is not a Google Maps search page.
	SearchHint = "Go to Google Maps Search."
)

// IsSearchPage reports whether rawURL points at a Google Maps search
// results page.
func IsSearchPage(rawURL string) bool {
	return strings.Contains(rawURL, searchMarker)
}

// BuildSearchURL builds a results URL for query, centred on lat/lng when
// both are given.
func BuildSearchURL(query string, lat, lng *float64, zoom float64) string {
	base := searchBaseURL + url.QueryEscape(strings.TrimSpace(query))
	if lat == nil || lng == nil {
		return base
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return fmt.Sprintf("%s/@%f,%f,%sz", base, *lat, *lng, strconv.FormatFloat(zoom, 'f', -1, 64))
}
