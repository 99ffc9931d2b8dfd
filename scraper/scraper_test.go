package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/co-fun/mapscontacts/config"
	"github.com/co-fun/mapscontacts/engine"
	"github.com/co-fun/mapscontacts/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name string
	got  *engine.FetchRequest
	err  error
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &engine.FetchResult{HTML: "<html></html>", EngineName: f.name}, nil
}

func newTestScraper(engines ...engine.Engine) *Scraper {
	s := &Scraper{scraperCfg: config.ScraperConfig{
		DefaultTimeout: 45 * time.Second,
		MaxTimeout:     120 * time.Second,
		ScrollRounds:   10,
	}}
	if len(engines) > 0 {
		s.SetDispatcher(engine.NewDispatcher(engines, nil, nil, nil))
	}
	return s
}

func TestClampTimeout(t *testing.T) {
	s := newTestScraper()
	assert.Equal(t, 45*time.Second, s.clampTimeout(0))
	assert.Equal(t, 10*time.Second, s.clampTimeout(10*time.Second))
	assert.Equal(t, 120*time.Second, s.clampTimeout(time.Hour))
}

func TestFetch_HTTPModeDisabled(t *testing.T) {
	s := newTestScraper()
	_, err := s.Fetch(context.Background(), &engine.FetchRequest{URL: "https://www.google.com/maps/search/x"}, ModeHTTP)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeInvalidInput, se.Code)
}

func TestFetch_ModesPickEngines(t *testing.T) {
	httpEng := &fakeEngine{name: "http"}
	rod := &fakeEngine{name: "rod"}
	stealthy := &fakeEngine{name: "rod-stealth"}
	s := newTestScraper(httpEng, rod, stealthy)

	res, err := s.Fetch(context.Background(), &engine.FetchRequest{URL: "u", ScrollRounds: -1}, ModeHTTP)
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, 10, httpEng.got.ScrollRounds, "negative scroll budget takes the default")
	assert.Equal(t, 45*time.Second, httpEng.got.Timeout)

	res, err = s.Fetch(context.Background(), &engine.FetchRequest{URL: "u", Stealth: true}, ModeBrowser)
	require.NoError(t, err)
	assert.Equal(t, "rod-stealth", res.EngineName)

	res, err = s.Fetch(context.Background(), &engine.FetchRequest{URL: "u"}, ModeBrowser)
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
}

func TestFetch_ErrorsAreTyped(t *testing.T) {
	s := newTestScraper(&fakeEngine{name: "http", err: errors.New("connection reset")})
	_, err := s.Fetch(context.Background(), &engine.FetchRequest{URL: "u"}, ModeHTTP)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeNavigation, se.Code)

	s = newTestScraper(&fakeEngine{name: "http", err: context.DeadlineExceeded})
	_, err = s.Fetch(context.Background(), &engine.FetchRequest{URL: "u"}, ModeAuto)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeTimeout, se.Code)
}
