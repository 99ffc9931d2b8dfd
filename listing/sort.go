// Package listing orders, renders and exports extracted listings.
package listing

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/co-fun/mapscontacts/models"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
	nonDigits   = regexp.MustCompile(`[^0-9]`)
)

// Sort returns a copy of records ordered by review score descending, then
// reviews count descending, then name ascending. The input is not modified.
func Sort(records []models.Listing) []models.Listing {
	out := make([]models.Listing, len(records))
	copy(out, records)

	// Collators keep internal buffers, so each call gets its own.
	col := collate.New(language.Und)
	slices.SortStableFunc(out, func(a, b models.Listing) int {
		if c := cmp.Compare(Score(b.ReviewScore), Score(a.ReviewScore)); c != 0 {
			return c
		}
		if c := cmp.Compare(Count(b.ReviewsCount), Count(a.ReviewsCount)); c != 0 {
			return c
		}
		return col.CompareString(a.Name, b.Name)
	})
	return out
}

// Score parses a review score leniently: the first ',' is read as the
// decimal point and only the leading numeric prefix counts. Anything
// unparsable is 0.
func Score(s string) float64 {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// Count parses a reviews count from its digits only. Anything without
// digits is 0; counts beyond int64 saturate at math.MaxInt64.
func Count(s string) int64 {
	d := nonDigits.ReplaceAllString(s, "")
	if d == "" {
		return 0
	}
	n, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		// Only ErrRange is possible here: d is all digits.
		return math.MaxInt64
	}
	return n
}
