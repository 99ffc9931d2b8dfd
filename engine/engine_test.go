package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.google.com/maps/search/pizza/@1,2,3z", "www.google.com/maps/search"},
		{"https://WWW.Google.com/maps/place/Foo", "www.google.com/maps/place"},
		{"https://example.com/", "example.com"},
		{"https://example.com/a", "example.com/a"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, routeKey(tt.in))
		})
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	defer m.Stop()

	m.Set(searchURL, "rod")
	assert.Equal(t, "rod", m.Get(searchURL))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "", m.Get(searchURL))
	assert.Equal(t, 0, m.Len(), "expired entry is dropped on read")
}

func TestMemory_PruneAndForget(t *testing.T) {
	m := NewMemory(time.Minute)
	m.Stop()
	m.Stop()

	m.Set("https://a.example/x", "http")
	m.Set("https://b.example/x", "rod")
	m.Forget("https://a.example/x")
	assert.Equal(t, 1, m.Len())

	m.prune(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, m.Len())
}

func TestPageHealth(t *testing.T) {
	h := NewPageHealth()
	assert.False(t, h.ShouldRetire())

	h.RecordFailure()
	h.RecordFailure()
	h.RecordSuccess()
	assert.False(t, h.ShouldRetire(), "score 1.5 is below the threshold")

	h.RecordFailure()
	h.RecordFailure()
	assert.True(t, h.ShouldRetire())

	worn := NewPageHealth()
	for i := 0; i < maxPageUses; i++ {
		worn.RecordSuccess()
	}
	assert.True(t, worn.ShouldRetire())
}

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title> Pizza - Google Maps </title></head><body></body></html>`))
	}))
	defer srv.Close()

	eng := NewHTTPEngine(HTTPOptions{Timeout: time.Second})
	res, err := eng.Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Headers: map[string]string{"Accept-Language": "it-IT,it;q=0.9"},
	})

	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "Pizza - Google Maps", res.Title)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "it-IT,it;q=0.9", gotLang)
}

func TestHTTPEngine_RejectsNonHTML(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
	}{
		{"json body", http.StatusOK, "application/json"},
		{"error status", http.StatusTooManyRequests, "text/html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewHTTPEngine(HTTPOptions{}).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
			assert.ErrorContains(t, err, "non-html or error status")
		})
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(HTTPOptions{Timeout: 30 * time.Millisecond}).
		Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Hello", extractTitle("<title>Hello</title>"))
	assert.Equal(t, "", extractTitle("<title></title>"))
	assert.Equal(t, "", extractTitle("<p>no title</p>"))
}
