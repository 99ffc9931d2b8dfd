package extractor

import "strings"

func parseStatus(text string) string {
	if m := firstSubmatch(statusPatterns, text); m != nil {
		return m[1]
	}
	return ""
}

// parseClosingTime walks the fallback chain: a 24-hours phrase, a closing
// clock time, an opening phrase, then an "open until" phrase. The first
// non-empty result wins.
func parseClosingTime(text string) string {
	if anyMatch(allDayPatterns, text) {
		return "24 hours"
	}
	if m := firstSubmatch(closesPatterns, text); m != nil {
		if t := strings.TrimSpace(strings.Replace(m[1], ".", ":", 1)); t != "" {
			return t
		}
	}
	if m := firstSubmatch(opensPatterns, text); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	if m := firstSubmatch(untilPatterns, text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
