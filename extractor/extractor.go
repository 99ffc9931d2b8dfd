// Package extractor turns a rendered Google Maps search-results page into
// Listing records. Card text varies by locale and carries no stable class
// names, so fields are recovered with ordered pattern tables and fallback
// chains over the card's visible text and aria labels.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/co-fun/mapscontacts/models"
)

const (
	placeAnchorSelector = `a[href^="https://www.google.com/maps/place"]`
	cardSelector        = `[jsaction*="mouseover:pane"]`
	ratingSelector      = `[role="img"][aria-label]`
)

var (
	placeAnchorMatcher = cascadia.MustCompile(placeAnchorSelector)
	cardMatcher        = cascadia.MustCompile(cardSelector)
	ratingMatcher      = cascadia.MustCompile(ratingSelector)
)

// Options tunes extraction.
type Options struct {
	// PageURL resolves relative links. Empty leaves them as found.
	PageURL string
}

// Extract returns one Listing per place anchor that sits inside a result
// card, in document order. A page without cards yields an empty slice.
func Extract(doc *goquery.Document, opts Options) []models.Listing {
	var base *url.URL
	if opts.PageURL != "" {
		if u, err := url.Parse(opts.PageURL); err == nil {
			base = u
		}
	}

	listings := []models.Listing{}
	doc.FindMatcher(placeAnchorMatcher).Each(func(_ int, anchor *goquery.Selection) {
		card := anchor.ClosestMatcher(cardMatcher)
		if card.Length() == 0 {
			return
		}
		listings = append(listings, extractCard(anchor, card, base))
	})
	return listings
}

// ExtractHTML parses rawHTML and runs Extract on it.
func ExtractHTML(rawHTML, pageURL string) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc, Options{PageURL: pageURL}), nil
}

// CountCards reports how many result cards rawHTML holds without extracting
// them.
func CountCards(rawHTML string) int {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return 0
	}
	n := 0
	for _, a := range cascadia.QueryAll(doc, placeAnchorMatcher) {
		for p := a; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && cardMatcher.Match(p) {
				n++
				break
			}
		}
	}
	return n
}

func extractCard(anchor, card *goquery.Selection, base *url.URL) models.Listing {
	href, _ := anchor.Attr("href")
	text := newCardText(card.Get(0))

	l := models.Listing{
		Name:    cardName(anchor, card),
		Phone:   parsePhone(text.lines),
		Website: findWebsite(card, base),
		Status:  parseStatus(text.flat),
		Address: parseAddress(text),
	}
	l.ClosingTime = parseClosingTime(text.flat)

	if rating := card.FindMatcher(ratingMatcher).First(); rating.Length() > 0 {
		label, _ := rating.Attr("aria-label")
		l.ReviewScore, l.ReviewsCount = parseRating(label)
	}

	l.Directions = directionsURL(href, l.Name)
	return l
}

func cardName(anchor, card *goquery.Selection) string {
	if name := strings.TrimSpace(anchor.AttrOr("aria-label", "")); name != "" {
		return name
	}
	return strings.TrimSpace(card.Find("[aria-label]").First().AttrOr("aria-label", ""))
}
