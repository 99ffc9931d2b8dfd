package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/co-fun/mapscontacts/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(APIKeyContextKey))
	})
	r.GET("/", handlers...)
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newRouter(Auth([]string{"secret-1", "secret-2"}))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
	}{
		{"missing", nil, http.StatusUnauthorized, "missing API key"},
		{"wrong", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized, "invalid API key"},
		{"header", map[string]string{"X-API-Key": "secret-2"}, http.StatusOK, "secret-2"},
		{"bearer", map[string]string{"Authorization": "Bearer secret-1"}, http.StatusOK, "secret-1"},
		{"basic ignored", map[string]string{"Authorization": "Basic secret-1"}, http.StatusUnauthorized, "missing API key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuth_NoKeysConfigured(t *testing.T) {
	r := newRouter(Auth([]string{"", ""}))
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRouter(Auth([]string{"a", "b"}), RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.5, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)

	w := get(r, map[string]string{"X-API-Key": "a"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	// Buckets are per key.
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "b"}).Code)
}
