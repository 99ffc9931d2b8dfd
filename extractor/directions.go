package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

const directionsBase = "https://www.google.com/maps/dir/?api=1&destination="

var coordsRe = regexp.MustCompile(`!3d([-0-9.]+)!4d([-0-9.]+)`)

// Characters a URI component keeps unescaped that QueryEscape escapes.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// directionsURL builds a Maps directions link from the coordinates embedded
// in the place href, or from the business name when there are none.
func directionsURL(href, name string) string {
	if m := coordsRe.FindStringSubmatch(href); m != nil {
		return directionsBase + m[1] + "," + m[2]
	}
	if name == "" {
		return ""
	}
	return directionsBase + escapeComponent(name)
}

func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
