package extractor

import (
	"regexp"
	"strings"
)

var (
	commaDigit = regexp.MustCompile(`,[` + spaceChars + `]*\d`)
	postalCode = regexp.MustCompile(`\b\d{4,6}\b`)
)

const segmentSep = " · "

func looksLikeAddress(s string) bool {
	if s == "" {
		return false
	}
	return commaDigit.MatchString(s) || anyMatch(streetPatterns, s) || postalCode.MatchString(s)
}

// parseAddress picks the address among the " · " separated segments of the
// card text, falling back to a line that looks like an address.
func parseAddress(t cardText) string {
	if segs := strings.Split(t.flat, segmentSep); len(segs) > 1 {
		var kept []string
		for _, s := range segs {
			s = strings.TrimSpace(s)
			if anyMatch(segmentNoisePatterns, s) || phoneRe.MatchString(s) {
				continue
			}
			kept = append(kept, s)
		}
		for _, s := range kept {
			if looksLikeAddress(s) {
				return s
			}
		}
		if len(kept) > 1 {
			if joined := strings.Join(kept[1:], segmentSep); joined != "" {
				return joined
			}
		}
		if len(kept) > 0 && kept[0] != "" {
			return kept[0]
		}
	}
	for _, l := range t.lines {
		if looksLikeAddress(l) {
			return l
		}
	}
	return ""
}
