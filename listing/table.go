package listing

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/co-fun/mapscontacts/models"
)

// NoData is the table text for an empty record set.
const NoData = "No data."

const fieldSep = " | "

// Table renders records as pipe-delimited text: a header line of field
// names, then one line per record. This is the form handed to the LLM.
func Table(records []models.Listing) string {
	if len(records) == 0 {
		return NoData
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(models.ListingFields, fieldSep))
	for _, r := range records {
		lines = append(lines, strings.Join(r.Values(), fieldSep))
	}
	return strings.Join(lines, "\n")
}

// HTMLTable renders records as an HTML table with display-name headers.
func HTMLTable(records []models.Listing) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, h := range models.ListingHeaders {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, r := range records {
		b.WriteString("<tr>")
		for _, v := range r.Values() {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(v))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

// newMarkdownConverter builds the converter used for table output. The
// converter is goroutine-safe and shared.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

var markdownConv = newMarkdownConverter()

// Markdown renders records as a Markdown table.
func Markdown(records []models.Listing) (string, error) {
	return markdownConv.ConvertString(HTMLTable(records))
}
