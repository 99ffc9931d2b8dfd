package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/co-fun/mapscontacts/extractor"
	"github.com/co-fun/mapscontacts/simhash"
	"github.com/go-rod/rod"
)

const (
	feedSelector = `div[role="feed"]`

	// Feed snapshots within this many bits are the same list.
	feedSimilarity = 3

	// Unchanged snapshots in a row before scrolling stops early.
	stableRounds = 2
)

const consentScript = `() => {
	const selectors = [
		'button[aria-label="Accept all"]',
		'button[aria-label="I agree"]',
		'button[aria-label="Alles akzeptieren"]',
		'button[aria-label="Accetta tutto"]',
		'button[aria-label="Tout accepter"]',
		'button.VfPpkd-LgbsSe-OWXEXe-k8QpJ'
	];
	for (const sel of selectors) {
		const btn = document.querySelector(sel);
		if (btn) {
			btn.click();
			return true;
		}
	}
	return false;
}`

const scrollScript = `() => {
	const feed = document.querySelector('div[role="feed"]');
	if (!feed) return false;
	feed.scrollBy(0, feed.offsetHeight);
	return true;
}`

const feedHTMLScript = `() => {
	const feed = document.querySelector('div[role="feed"]');
	return feed ? feed.outerHTML : '';
}`

// acceptConsent dismisses the cookie consent wall if one is showing.
func acceptConsent(p *rod.Page) bool {
	res, err := p.Eval(consentScript)
	if err != nil {
		slog.Debug("consent script failed", "error", err)
		return false
	}
	return res.Value.Bool()
}

// waitForFeed blocks until the results feed is in the DOM or timeout passes.
func waitForFeed(p *rod.Page, timeout time.Duration) error {
	_, err := p.Timeout(timeout).Element(feedSelector)
	return err
}

type feedSnapshot struct {
	cards       int
	fingerprint uint64
}

func snapshotFeed(p *rod.Page) (feedSnapshot, error) {
	res, err := p.Eval(feedHTMLScript)
	if err != nil {
		return feedSnapshot{}, err
	}
	markup := res.Value.Str()
	return feedSnapshot{
		cards:       extractor.CountCards(markup),
		fingerprint: simhash.Markup(markup),
	}, nil
}

// scrollFeed scrolls the results feed up to rounds times so Google loads
// more cards. It stops early once the card count and the feed markup stay
// the same for stableRounds scrolls in a row. It returns the number of
// scrolls performed.
func scrollFeed(ctx context.Context, p *rod.Page, rounds int, pause time.Duration) (int, error) {
	if rounds <= 0 {
		return 0, nil
	}
	prev, err := snapshotFeed(p)
	if err != nil {
		return 0, err
	}

	scrolls, stable := 0, 0
	for scrolls < rounds {
		res, err := p.Eval(scrollScript)
		if err != nil {
			return scrolls, err
		}
		if !res.Value.Bool() {
			break
		}
		scrolls++

		select {
		case <-ctx.Done():
			return scrolls, ctx.Err()
		case <-time.After(pause):
		}

		cur, err := snapshotFeed(p)
		if err != nil {
			return scrolls, err
		}
		if cur.cards == prev.cards && simhash.Similar(cur.fingerprint, prev.fingerprint, feedSimilarity) {
			stable++
			if stable >= stableRounds {
				slog.Debug("feed stopped growing", "scrolls", scrolls, "cards", cur.cards)
				break
			}
		} else {
			stable = 0
		}
		prev = cur
	}
	return scrolls, nil
}
