package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdesk/talentchat/internal/log"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := newRateLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.allow("10.0.0.1"), "burst exhausted")
}

func TestRateLimiterIsolatesIPs(t *testing.T) {
	rl := newRateLimiter(1.0, 1)

	require.True(t, rl.allow("10.0.0.1"))
	require.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "other IPs keep their own bucket")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(1.0, 1)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"

	assert.Equal(t, "192.0.2.10", clientIP(req, false))

	req.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "192.0.2.10", clientIP(req, false), "proxy headers ignored when untrusted")
	assert.Equal(t, "203.0.113.7", clientIP(req, true))

	req.Header.Del("X-Real-IP")
	req.Header.Set("X-Forwarded-For", "203.0.113.8, 10.0.0.1")
	assert.Equal(t, "203.0.113.8", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "192.0.2.10", clientIP(req, true), "invalid header falls back to RemoteAddr")
}
