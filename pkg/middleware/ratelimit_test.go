package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, requests int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{
		Name:     "login",
		Requests: requests,
		Window:   window,
		Code:     "LOGIN_RATE_LIMIT",
		Message:  "Too many login attempts, please try again later",
	}, discardLogger())
	rl.nowFunc = clock.Now
	t.Cleanup(rl.Close)
	return rl, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func send(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_AllowsFullWindowBudget(t *testing.T) {
	rl, _ := newTestLimiter(t, 10, 15*time.Minute)
	h := rl.Handler(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, send(h, "10.0.0.1:1000").Code, "request %d should pass", i+1)
	}
}

func TestRateLimiter_ExceedingBudget_Returns429WithCode(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)
	h := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, send(h, "10.0.0.1:1000").Code)
	}

	rr := send(h, "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "LOGIN_RATE_LIMIT")
	assert.Equal(t, "20", rr.Header().Get("Retry-After"))
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)
	h := rl.Handler(okHandler())

	send(h, "10.0.0.1:1000")
	send(h, "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, send(h, "10.0.0.1:1000").Code)

	clock.Advance(30 * time.Second)
	assert.Equal(t, http.StatusOK, send(h, "10.0.0.1:1000").Code)
}

func TestRateLimiter_DifferentIPs_IndependentLimits(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	h := rl.Handler(okHandler())

	assert.Equal(t, http.StatusOK, send(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send(h, "10.0.0.2:1000").Code)
}

func TestRateLimiter_ForwardedForIgnoredUnlessTrusted(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	h := rl.Handler(okHandler())

	req := func(xff string) int {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:1000"
		r.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, req("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("2.2.2.2"), "spoofed header must not grant a fresh bucket")
}

func TestRateLimiter_Cleanup_EvictsIdleVisitors(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute)
	h := rl.Handler(okHandler())

	send(h, "10.0.0.1:1000")
	clock.Advance(30 * time.Second)
	send(h, "10.0.0.2:1000")
	require.Equal(t, 2, rl.len())

	clock.Advance(45 * time.Second)
	rl.cleanup()

	assert.Equal(t, 1, rl.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		xff     string
		xri     string
		trusted bool
		want    string
	}{
		{"remote addr", "192.0.2.1:5555", "", "", false, "192.0.2.1"},
		{"untrusted xff", "192.0.2.1:5555", "198.51.100.7", "", false, "192.0.2.1"},
		{"trusted xff first hop", "192.0.2.1:5555", "198.51.100.7, 10.0.0.1", "", true, "198.51.100.7"},
		{"trusted x-real-ip", "192.0.2.1:5555", "", "198.51.100.8", true, "198.51.100.8"},
		{"trusted garbage falls back", "192.0.2.1:5555", "garbage", "", true, "192.0.2.1"},
		{"no port", "192.0.2.1", "", "", false, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trusted))
		})
	}
}
