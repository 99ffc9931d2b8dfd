package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-fun/mapscontacts/models"
)

const searchPage = `<!DOCTYPE html>
<html><body>
<div role="feed">
  <div jsaction="mouseover:pane.wfvdle12;mouseout:pane.wfvdle12">
    <a href="https://www.google.com/maps/place/Blue+Bottle+Coffee/data=!4m7!3m6!1s0x0:0x1!8m2!3d37.7764!4d-122.4231!16s" aria-label="Blue Bottle Coffee"></a>
    <div>Blue Bottle Coffee</div>
    <div><span role="img" aria-label="4.7 stars 128 Reviews"></span></div>
    <div>Coffee shop · 315 Linden St · +1 415-555-0199</div>
    <div>
      <a href="https://bluebottlecoffee.com/" data-value="Website">Website</a>
      <a href="https://www.google.com/maps/dir//Blue+Bottle">Directions</a>
    </div>
    <div>Open · Closes 6:00 pm</div>
  </div>
  <div jsaction="mouseover:pane.wfvdle13;mouseout:pane.wfvdle13">
    <a href="https://www.google.com/maps/place/Caff%C3%A8+Centrale/data=!4m2" aria-label="Caffè Centrale"></a>
    <div>Caffè Centrale</div>
    <div><span role="img" aria-label="4,5 stelle 1.234 recensioni"></span></div>
    <div>Bar · Via Roma 12, 20121 Milano · 02 1234 5678</div>
    <div><a href="/url?q=https://caffecentrale.example.it" aria-label="Sito web: Caffè Centrale">Sito web</a></div>
    <div>Aperto · Chiude alle 19.30</div>
  </div>
  <div jsaction="mouseover:pane.wfvdle14;mouseout:pane.wfvdle14">
    <a href="https://www.google.com/maps/place/Kiosk" aria-label="Kiosk"></a>
    <div>Kiosk</div>
  </div>
</div>
<a href="https://www.google.com/maps/place/Orphan" aria-label="Orphan"></a>
</body></html>`

func TestExtractHTML(t *testing.T) {
	listings, err := ExtractHTML(searchPage, "https://www.google.com/maps/search/coffee")
	require.NoError(t, err)
	require.Len(t, listings, 3)

	assert.Equal(t, models.Listing{
		Name:         "Blue Bottle Coffee",
		Phone:        "+1 415-555-0199",
		Website:      "https://bluebottlecoffee.com/",
		Status:       "Open",
		ClosingTime:  "6:00 pm",
		Address:      "315 Linden St",
		ReviewScore:  "4.7",
		ReviewsCount: "128",
		Directions:   "https://www.google.com/maps/dir/?api=1&destination=37.7764,-122.4231",
	}, listings[0])

	assert.Equal(t, models.Listing{
		Name:         "Caffè Centrale",
		Phone:        "02 1234 5678",
		Website:      "https://www.google.com/url?q=https://caffecentrale.example.it",
		Status:       "Aperto",
		ClosingTime:  "19:30",
		Address:      "Via Roma 12, 20121 Milano",
		ReviewScore:  "4.5",
		ReviewsCount: "1234",
		Directions:   "https://www.google.com/maps/dir/?api=1&destination=Caff%C3%A8%20Centrale",
	}, listings[1])

	kiosk := listings[2]
	assert.Equal(t, "Kiosk", kiosk.Name)
	assert.Empty(t, kiosk.ReviewScore)
	assert.Empty(t, kiosk.ReviewsCount)
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=Kiosk", kiosk.Directions)
}

func TestExtractHTML_UnicodeSpaces(t *testing.T) {
	page := "<div jsaction=\"mouseover:pane.nb\">" +
		"<a href=\"https://www.google.com/maps/place/Nero\" aria-label=\"Caffè Nero\"></a>" +
		"<div><span role=\"img\" aria-label=\"4,5\u00a0stelle 1.234\u00a0recensioni\"></span></div>" +
		"<div>Bar\u00a0·\u00a0Via Roma 12,\u00a020121 Milano\u00a0·\u00a0+39\u00a002\u00a01234\u00a05678</div>" +
		"<div>Aperto\u202f·\u202fChiude alle\u00a019.30</div>" +
		"</div>"

	listings, err := ExtractHTML(page, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)

	got := listings[0]
	assert.Equal(t, "+39 02 1234 5678", got.Phone)
	assert.Equal(t, "Via Roma 12, 20121 Milano", got.Address)
	assert.Equal(t, "Aperto", got.Status)
	assert.Equal(t, "19:30", got.ClosingTime)
	assert.Equal(t, "4.5", got.ReviewScore)
	assert.Equal(t, "1234", got.ReviewsCount)
}

func TestInnerText_UnicodeSpaces(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>a\u00a0\u00a0b&nbsp;c\u202fd\u2009e</div>"))
	require.NoError(t, err)
	assert.Equal(t, "a b c d e", innerText(doc.Find("div").Get(0)))
}

func TestExtractHTML_NoCards(t *testing.T) {
	listings, err := ExtractHTML(`<html><body><p>Nothing here</p></body></html>`, "")
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestExtract_DirectionsWheneverNamed(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(searchPage))
	require.NoError(t, err)
	for _, l := range Extract(doc, Options{}) {
		if l.Name != "" {
			assert.NotEmpty(t, l.Directions, l.Name)
		}
	}
}

func TestExtract_NameFallsBackToCardLabel(t *testing.T) {
	page := `<div jsaction="mouseover:pane.x">
		<a href="https://www.google.com/maps/place/X"></a>
		<div aria-label="  Trattoria Mario "></div>
	</div>`
	listings, err := ExtractHTML(page, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Trattoria Mario", listings[0].Name)
}

func TestCountCards(t *testing.T) {
	assert.Equal(t, 3, CountCards(searchPage))
	assert.Equal(t, 0, CountCards(`<a href="https://www.google.com/maps/place/X">x</a>`))
	assert.Equal(t, 0, CountCards(""))
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		label     string
		wantScore string
		wantCount string
	}{
		{"4.7 stars 128 reviews", "4.7", "128"},
		{"4,5 stelle 1.234 recensioni", "4.5", "1234"},
		{"4.2 Sterne 56 Rezensionen", "4.2", "56"},
		{"5.0 stars 1 review", "5.0", "1"},
		{"4.5 stars 1,234", "4.5", "1234"},
		{"3 stelle", "3", ""},
		{"No reviews", "", "0"},
		{"Keine Rezensionen", "", "0"},
		{"Nessuna recensione", "", "0"},
		{"4,5\u00a0stelle 1.234\u00a0recensioni", "4.5", "1234"},
		{"No\u00a0reviews", "", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			score, count := parseRating(tt.label)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]string{
		"Closed ⋅ Opens 8 am":          "Closed",
		"Open 24 hours":                "Open",
		"Geöffnet · Schließt um 18:00": "Geöffnet",
		"Chiuso · Apre alle 9":         "Chiuso",
		"Fermé · Ouvre à 9:00":         "Fermé",
		"Reopening soon":               "",
	}
	for text, want := range tests {
		assert.Equal(t, want, parseStatus(text), text)
	}
}

func TestParseClosingTime(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Open 24 hours", "24 hours"},
		{"Aperto 24 ore", "24 hours"},
		{"Geöffnet 24 Stunden", "24 hours"},
		{"Chiude alle 19:30", "19:30"},
		{"Aperto · Chiude alle ore 19.30", "19:30"},
		{"Open · Closes at 10:00 pm", "10:00 pm"},
		{"Geöffnet · Schließt um 18:00", "18:00"},
		{"Ouvert · Ferme à 22:00", "22:00"},
		{"Closed ⋅ Opens 8:30 am Thu", "8:30 am Thu"},
		{"Open until 10 pm", "10 pm"},
		{"Aperto fino alle 23 · Bar", "23"},
		{"Coffee shop", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseClosingTime(tt.text))
		})
	}
}

func TestParsePhone(t *testing.T) {
	lines := []string{
		"4.5 stars",
		"Open ⋅ +39 02 1234 5678",
		"+39  02   1234 5678",
	}
	assert.Equal(t, "+39 02 1234 5678", parsePhone(lines))
	assert.Empty(t, parsePhone([]string{"Bar", "Via Roma 12"}))

	assert.Equal(t, "+39\u00a002\u00a01234\u00a05678",
		parsePhone([]string{"Bar", "+39\u00a002\u00a01234\u00a05678"}))
	assert.Equal(t, "+39 02 1234 5678",
		parsePhone([]string{"+39\u202f\u202f02 1234 5678"}))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name string
		text cardText
		want string
	}{
		{
			name: "address-like segment",
			text: cardText{flat: "Bar · Via Roma 12, 20121 Milano · 02 1234 5678"},
			want: "Via Roma 12, 20121 Milano",
		},
		{
			name: "segments after the first",
			text: cardText{flat: "Pizzeria · Downtown · Takeaway"},
			want: "Downtown · Takeaway",
		},
		{
			name: "noise segments dropped",
			text: cardText{flat: "Hotel · Open 24 hours"},
			want: "Hotel",
		},
		{
			name: "line scan",
			text: cardText{flat: "Kiosk Hauptstraße 5", lines: []string{"Kiosk", "Hauptstraße 5"}},
			want: "Hauptstraße 5",
		},
		{
			name: "nothing",
			text: cardText{flat: "Kiosk", lines: []string{"Kiosk"}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAddress(tt.text))
		})
	}
}

func TestFindWebsite_FallsBackToLabelledLink(t *testing.T) {
	page := `<div jsaction="mouseover:pane.x">
		<a href="https://www.google.com/maps/place/X" aria-label="Bakery"></a>
		<a href="https://www.google.com/maps/dir/website">website</a>
		<a href="https://example.org/menu">Menu</a>
		<a href="https://example.org/">Website</a>
	</div>`
	listings, err := ExtractHTML(page, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "https://example.org/", listings[0].Website)
}

func TestDirectionsURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&destination=45.4642,9.19",
		directionsURL("https://www.google.com/maps/place/X/data=!3d45.4642!4d9.19", "X"))
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&destination=Bar%20%26%20Grill%20(Old)",
		directionsURL("https://www.google.com/maps/place/X", "Bar & Grill (Old)"))
	assert.Empty(t, directionsURL("https://www.google.com/maps/place/X", ""))
}

func TestInnerText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><p>a
		b</p><span>c</span><br>d<script>x()</script><style>.y{}</style></div>`))
	require.NoError(t, err)
	assert.Equal(t, "a b\nc\nd", innerText(doc.Find("div").Get(0)))
}
