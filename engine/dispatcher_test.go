package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name  string
	html  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &FetchResult{HTML: s.html, FinalURL: req.URL, EngineName: s.name}, nil
}

// hasCards accepts pages that contain the marker "card".
func hasCards(r *FetchResult) error {
	if !strings.Contains(r.HTML, "card") {
		return errors.New("no listing cards")
	}
	return nil
}

const searchURL = "https://www.google.com/maps/search/pizza"

func TestDispatch_FirstAcceptedWins(t *testing.T) {
	fast := &stubEngine{name: "http", html: "<div>card</div>"}
	slow := &stubEngine{name: "rod", html: "<div>card</div>", delay: time.Second}
	mem := NewMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, 50 * time.Millisecond}, mem, hasCards)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})

	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "http", mem.Get(searchURL))
}

func TestDispatch_RejectedResultEscalates(t *testing.T) {
	shell := &stubEngine{name: "http", html: "<script>app()</script>"}
	browser := &stubEngine{name: "rod", html: "<div>card</div>"}

	d := NewDispatcher([]Engine{shell, browser}, []time.Duration{0, 10 * time.Millisecond}, nil, hasCards)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
}

func TestDispatch_AllRejectedReturnsHeaviestPage(t *testing.T) {
	shell := &stubEngine{name: "http", html: "<p>shell</p>"}
	empty := &stubEngine{name: "rod", html: "<p>no results</p>", delay: 20 * time.Millisecond}

	d := NewDispatcher([]Engine{shell, empty}, nil, nil, hasCards)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, "<p>no results</p>", res.HTML)
}

func TestDispatch_AllFailReturnsLastError(t *testing.T) {
	first := &stubEngine{name: "http", err: errors.New("blocked")}
	second := &stubEngine{name: "rod", err: errors.New("crashed"), delay: 20 * time.Millisecond}

	d := NewDispatcher([]Engine{first, second}, nil, nil, hasCards)
	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})

	require.Error(t, err)
	assert.Equal(t, "crashed", err.Error())
}

func TestDispatch_WinnerCancelsPendingEngines(t *testing.T) {
	fast := &stubEngine{name: "http", html: "card"}
	late := &stubEngine{name: "rod-stealth", html: "card"}

	d := NewDispatcher([]Engine{fast, late}, []time.Duration{0, 200 * time.Millisecond}, nil, nil)
	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), late.calls.Load(), "escalated engine should never start")
}

func TestDispatch_MemoryHitSkipsRace(t *testing.T) {
	httpEng := &stubEngine{name: "http", html: "shell"}
	rod := &stubEngine{name: "rod", html: "card"}
	mem := NewMemory(time.Hour)
	defer mem.Stop()
	mem.Set(searchURL, "rod")

	d := NewDispatcher([]Engine{httpEng, rod}, nil, mem, hasCards)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL + "/@1,2,13z"})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, int32(0), httpEng.calls.Load())
}

func TestDispatch_MemoryMissForgetsEntry(t *testing.T) {
	httpEng := &stubEngine{name: "http", html: "shell"}
	rod := &stubEngine{name: "rod", html: "card", delay: 10 * time.Millisecond}
	mem := NewMemory(time.Hour)
	defer mem.Stop()
	mem.Set(searchURL, "http")

	d := NewDispatcher([]Engine{httpEng, rod}, nil, mem, hasCards)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL})

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, "rod", mem.Get(searchURL))
}

func TestDispatch_Only(t *testing.T) {
	httpEng := &stubEngine{name: "http", html: "shell"}
	rod := &stubEngine{name: "rod", html: "card"}
	d := NewDispatcher([]Engine{httpEng, rod}, nil, nil, hasCards)

	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: searchURL, Only: "http"})
	require.NoError(t, err)
	assert.Equal(t, "shell", res.HTML, "a single-engine fetch returns the page even without cards")
	assert.Equal(t, int32(0), rod.calls.Load())

	_, err = d.Dispatch(context.Background(), &FetchRequest{URL: searchURL, Only: "chromedp"})
	assert.ErrorContains(t, err, `engine "chromedp" not registered`)
}

func TestDispatch_ContextDeadline(t *testing.T) {
	slow := &stubEngine{name: "rod", html: "card", delay: time.Second}
	d := NewDispatcher([]Engine{slow}, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := d.Dispatch(ctx, &FetchRequest{URL: searchURL})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBrowserEngine(t *testing.T) {
	var got *FetchRequest
	render := func(_ context.Context, req *FetchRequest) (*FetchResult, error) {
		got = req
		return &FetchResult{HTML: "card"}, nil
	}

	eng := NewBrowserEngine(render, true)
	assert.Equal(t, "rod-stealth", eng.Name())

	req := &FetchRequest{URL: searchURL}
	res, err := eng.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "rod-stealth", res.EngineName)
	assert.True(t, got.Stealth)
	assert.False(t, req.Stealth, "caller's request must not be mutated")

	failing := NewBrowserEngine(func(context.Context, *FetchRequest) (*FetchResult, error) {
		return nil, errors.New("feed missing")
	}, false)
	_, err = failing.Fetch(context.Background(), req)
	assert.EqualError(t, err, "rod: feed missing")
}
