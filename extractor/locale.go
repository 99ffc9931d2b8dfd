package extractor

import "regexp"

// localePattern is one row of a locale table. Rows are evaluated in order
// and the first row that matches wins, so adding a locale is adding a row.
type localePattern struct {
	locale string
	re     *regexp.Regexp
}

// firstSubmatch returns the submatches of the first row matching s.
func firstSubmatch(table []localePattern, s string) []string {
	for _, p := range table {
		if m := p.re.FindStringSubmatch(s); m != nil {
			return m
		}
	}
	return nil
}

// anyMatch reports whether any row matches s.
func anyMatch(table []localePattern, s string) bool {
	for _, p := range table {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}

// Number followed (after non-digits) by a reviews word. Thousands
// separators are accepted in the number and stripped later.
var reviewsPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d{1,6})[^\d]*?reviews?`)},
	{"de", regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d{1,6})[^\d]*?rezensionen`)},
	{"it", regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d{1,6})[^\d]*?recensioni`)},
}

var noReviewsPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)No\s+reviews`)},
	{"de", regexp.MustCompile(`(?i)Keine\s+Rezensionen`)},
	{"it", regexp.MustCompile(`(?i)Nessuna\s+recensione`)},
}

var statusPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)\b(Open|Closed)\b`)},
	{"de", regexp.MustCompile(`(?i)\b(Geöffnet|Geschlossen)\b`)},
	{"it", regexp.MustCompile(`(?i)\b(Aperto|Chiuso)\b`)},
	// \b is ASCII-only, so "Fermé" ends on a non-letter check instead.
	{"fr", regexp.MustCompile(`(?i)\b(Ouvert|Fermé)(?:$|[^\p{L}])`)},
}

var allDayPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)24\s*hours`)},
	{"it", regexp.MustCompile(`(?i)24\s*ore`)},
	{"de", regexp.MustCompile(`(?i)24\s*Stunden`)},
}

const clockTime = `([0-2]?\d[:.]\d{2}(?:\s*(?:am|pm))?(?:\s*[A-Za-z]{2,3})?)`

var closesPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)Closes\s*(?:at\s*)?\s*` + clockTime)},
	{"de", regexp.MustCompile(`(?i)Schlie(?:ß|ss)t\s*um\s*` + clockTime)},
	{"it", regexp.MustCompile(`(?i)Chiude\s*(?:alle(?:\s*ore)?)?\s*` + clockTime)},
	{"fr", regexp.MustCompile(`(?i)Ferme\s+à\s*` + clockTime)},
}

var opensPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)Opens\s+([^⋅·|]+)`)},
	{"it", regexp.MustCompile(`(?i)Apre\s+(?:alle(?:\s*ore)?)?([^⋅·|]+)`)},
}

var untilPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)Open\s+until\s+([^⋅·|]+)`)},
	{"it", regexp.MustCompile(`(?i)Aperto\s+fino\s+alle(?:\s*ore)?\s+([^⋅·|]+)`)},
}

// Lines holding any of these words are never read as a phone number.
var phoneNoisePatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)stars?|reviews?|open|closed|website|directions`)},
	{"de", regexp.MustCompile(`(?i)rezensionen|geöffnet|geschlossen`)},
	{"it", regexp.MustCompile(`(?i)stelle|recensioni|aperto|chiuso|sito|indicazioni`)},
}

// Address segments holding any of these words are dropped.
var segmentNoisePatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)Open|Closed|Website|Directions?|Reviews|stars?`)},
	{"de", regexp.MustCompile(`(?i)Geöffnet|Geschlossen|Routen?|Rezension`)},
}

var streetPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`)},
	{"it", regexp.MustCompile(`(?i)\b(?:via|viale|piazza|corso)\b`)},
	{"de", regexp.MustCompile(`(?i)straße|strasse|platz`)},
	{"fr", regexp.MustCompile(`(?i)\brue\b`)},
	{"es", regexp.MustCompile(`(?i)\bcalle\b`)},
	{"ca", regexp.MustCompile(`(?i)\bcarrer\b`)},
	{"nl", regexp.MustCompile(`(?i)straat`)},
}

var websiteTextPatterns = []localePattern{
	{"en", regexp.MustCompile(`(?i)\bwebsite\b`)},
	{"it", regexp.MustCompile(`(?i)\bsito\b`)},
}
