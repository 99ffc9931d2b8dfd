package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// Markup fingerprints an HTML fragment by its tag structure and link
// targets, ignoring text and other attributes. Snapshots of a list that
// has not grown fingerprint alike even when counters or timestamps in it
// change.
func Markup(htmlStr string) uint64 {
	tags, links := scanMarkup(htmlStr)
	if len(tags) == 0 {
		return 0
	}
	features := shingles(tags, 3)
	if features == nil {
		features = tags
	}
	return Sum(append(features, links...))
}

// scanMarkup tokenizes htmlStr and returns the start tag names in order and
// the href of every anchor.
func scanMarkup(htmlStr string) (tags, links []string) {
	z := html.NewTokenizer(strings.NewReader(htmlStr))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags, links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tags = append(tags, string(name))
			if string(name) != "a" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					links = append(links, "href:"+string(val))
				}
			}
		}
	}
}

// shingles joins each run of n consecutive tokens into one feature.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}
