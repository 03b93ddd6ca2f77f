package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPerIPBuckets(t *testing.T) {
	limiter := NewRateLimiter(2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// Another IP has its own bucket.
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestMiddlewareReturns429(t *testing.T) {
	env := newTestEnvWithLimiter(t, NewRateLimiter(2))

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")
}

func TestMiddlewareDistinguishesClients(t *testing.T) {
	env := newTestEnvWithLimiter(t, NewRateLimiter(1))

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "203.0.113.1:40000"
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	exhausted := httptest.NewRequest(http.MethodGet, "/health", nil)
	exhausted.RemoteAddr = "203.0.113.1:40001"
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, exhausted)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "203.0.113.2:40000"
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
