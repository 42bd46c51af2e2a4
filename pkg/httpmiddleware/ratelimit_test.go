package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(t *testing.T, h http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := hit(t, h, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		w := hit(t, h, "10.0.0.1:9999", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := hit(t, h, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_IndependentClients(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, hit(t, h, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(t, h, "10.0.0.2:1234", nil).Code)

	// The first client is out of budget, regardless of source port.
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "10.0.0.1:5678", nil).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("api_key")
		},
	})(okHandler())

	assert.Equal(t, http.StatusOK, hit(t, h, "", map[string]string{"api_key": "key-a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "", map[string]string{"api_key": "key-a"}).Code)
	assert.Equal(t, http.StatusOK, hit(t, h, "", map[string]string{"api_key": "key-b"}).Code)
}

func TestRateLimit_KeysByForwardedFor(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}
	assert.Equal(t, http.StatusOK, hit(t, h, "192.168.1.1:4444", xff).Code)

	// Same first hop behind a different proxy address is still the same client.
	assert.Equal(t, http.StatusTooManyRequests, hit(t, h, "192.168.1.2:5555", xff).Code)
}

func TestBucket_SweepDropsStaleClients(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	now := time.Now()
	_, _, allowed := rl.allow("client", now)
	require.True(t, allowed)
	require.Len(t, rl.buckets, 1)

	rl.sweep(now.Add(time.Minute))
	assert.Len(t, rl.buckets, 1, "bucket survives one elapsed window")

	rl.sweep(now.Add(3 * time.Minute))
	assert.Empty(t, rl.buckets)
}

func TestBucket_WindowRotation(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})

	now := time.Now().Truncate(time.Minute)
	for range 2 {
		_, _, allowed := rl.allow("c", now)
		require.True(t, allowed)
	}
	_, _, allowed := rl.allow("c", now)
	require.False(t, allowed)

	// Two full windows later the budget is fresh.
	_, _, allowed = rl.allow("c", now.Add(2*time.Minute))
	assert.True(t, allowed)
}
