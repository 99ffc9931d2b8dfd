package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// spaceChars is the whitespace class of browser regexps: ASCII space plus
// the Unicode space separators (NBSP, narrow NBSP, ...), BOM and the line
// and paragraph separators.
const spaceChars = `\s\p{Zs}\x{FEFF}\x{2028}\x{2029}`

var (
	spaceRun   = regexp.MustCompile(`[` + spaceChars + `]+`)
	newlineRun = regexp.MustCompile(`\n+`)
)

// Elements rendered on their own line.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// Elements whose content is never visible.
var hiddenElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// innerText approximates the browser's innerText for n: block elements and
// <br> break lines, table cells are tab separated, whitespace inside text
// nodes collapses.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(spaceRun.ReplaceAllString(n.Data, " "))
			return
		case html.ElementNode:
			if hiddenElements[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		switch {
		case block:
			b.WriteByte('\n')
		case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
			b.WriteByte('\t')
		}
	}
	walk(n)
	return strings.TrimSpace(newlineRun.ReplaceAllString(b.String(), "\n"))
}

// cardText holds the two views of a card's visible text.
type cardText struct {
	// flat is the whole text on one line with whitespace collapsed.
	flat string
	// lines are the non-empty trimmed lines.
	lines []string
}

func newCardText(n *html.Node) cardText {
	raw := innerText(n)
	t := cardText{flat: strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))}
	for _, l := range newlineRun.Split(raw, -1) {
		if l = strings.TrimSpace(l); l != "" {
			t.lines = append(t.lines, l)
		}
	}
	return t
}
