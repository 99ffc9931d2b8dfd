package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	phoneRe      = regexp.MustCompile(`\+?\d[\d` + spaceChars + `().-]{6,}\d`)
	multiSpace   = regexp.MustCompile(`[` + spaceChars + `]{2,}`)
	googleMapsRe = regexp.MustCompile(`(?i)google\.[^/]+/maps/`)
)

// parsePhone returns the first phone-like run on a line that carries no
// status, rating, website or directions keyword.
func parsePhone(lines []string) string {
	for _, line := range lines {
		if anyMatch(phoneNoisePatterns, line) {
			continue
		}
		if m := phoneRe.FindString(line); m != "" {
			return strings.TrimSpace(multiSpace.ReplaceAllString(m, " "))
		}
	}
	return ""
}

// findWebsite prefers the card's explicit website control and falls back to
// an external link labelled as a website.
func findWebsite(card *goquery.Selection, base *url.URL) string {
	var link *goquery.Selection
	card.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if isWebsiteControl(a) {
			link = a
			return false
		}
		return true
	})
	if link == nil {
		card.Find(`a[href^="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if googleMapsRe.MatchString(resolveHref(base, href)) {
				return true
			}
			if anyMatch(websiteTextPatterns, strings.TrimSpace(innerText(a.Get(0)))) {
				link = a
				return false
			}
			return true
		})
	}
	if link == nil {
		return ""
	}
	href, _ := link.Attr("href")
	return resolveHref(base, href)
}

func isWebsiteControl(a *goquery.Selection) bool {
	if v, ok := a.Attr("data-value"); ok {
		if v == "Website" || strings.Contains(strings.ToLower(v), "sito") {
			return true
		}
	}
	if v, ok := a.Attr("aria-label"); ok {
		v = strings.ToLower(v)
		if strings.Contains(v, "website") || strings.Contains(v, "sito") {
			return true
		}
	}
	return false
}

// resolveHref makes href absolute against base. Hrefs that do not parse are
// returned unchanged.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
