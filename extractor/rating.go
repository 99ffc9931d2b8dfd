package extractor

import (
	"regexp"
	"strings"
)

var (
	scoreRe     = regexp.MustCompile(`(?:^|\s)([0-9]+(?:[.,][0-9]+)?)\b`)
	labelNumber = regexp.MustCompile(`\d{1,6}(?:[.,]\d+)?`)
	thousandSep = regexp.MustCompile(`[.,](\d{3})\b`)
	separators  = strings.NewReplacer(",", "", ".", "")
)

// parseRating reads the review score and the reviews count from the
// aria-label of a card's rating image, e.g. "4.7 stars 128 reviews" or
// "4,5 stelle 1.234 recensioni".
func parseRating(label string) (score, count string) {
	label = strings.TrimSpace(spaceRun.ReplaceAllString(label, " "))

	if m := scoreRe.FindStringSubmatch(label); m != nil {
		score = strings.Replace(m[1], ",", ".", 1)
	}

	if m := firstSubmatch(reviewsPatterns, label); m != nil {
		count = separators.Replace(m[1])
	} else {
		nums := labelNumber.FindAllString(label, -1)
		if len(nums) >= 2 {
			count = separators.Replace(thousandSep.ReplaceAllString(nums[1], "$1"))
		}
	}

	if anyMatch(noReviewsPatterns, label) {
		return "", "0"
	}
	return score, count
}
