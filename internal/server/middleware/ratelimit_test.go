package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func frozenLimiter(t *testing.T, rps float64, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(rps, burst)
	t.Cleanup(limiter.Stop)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		burst     int
		wantBurst int
		wantIdle  time.Duration
	}{
		{name: "fast refill uses minimum idle", rps: 10, burst: 20, wantBurst: 20, wantIdle: time.Minute},
		{name: "slow refill extends idle", rps: 0.5, burst: 150, wantBurst: 150, wantIdle: 5 * time.Minute},
		{name: "zero burst raised to one", rps: 1, burst: 0, wantBurst: 1, wantIdle: time.Minute},
		{name: "zero rate", rps: 0, burst: 5, wantBurst: 5, wantIdle: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.rps, tt.burst)
			defer limiter.Stop()

			assert.Equal(t, rate.Limit(tt.rps), limiter.rps)
			assert.Equal(t, tt.wantBurst, limiter.burst)
			assert.Equal(t, tt.wantIdle, limiter.idle)

			limiter.Stop()
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("burst then deny with wait", func(t *testing.T) {
		limiter, _ := frozenLimiter(t, 0.5, 3)

		for i := 0; i < 3; i++ {
			ok, wait := limiter.Allow("ip:10.0.0.1")
			require.True(t, ok, "request %d", i+1)
			assert.Zero(t, wait)
		}
		ok, wait := limiter.Allow("ip:10.0.0.1")
		assert.False(t, ok)
		assert.Equal(t, 2*time.Second, wait)
	})

	t.Run("denied request does not consume tokens", func(t *testing.T) {
		limiter, now := frozenLimiter(t, 1, 1)

		ok, _ := limiter.Allow("k")
		require.True(t, ok)
		for i := 0; i < 5; i++ {
			ok, _ = limiter.Allow("k")
			require.False(t, ok)
		}

		*now = now.Add(1100 * time.Millisecond)
		ok, _ = limiter.Allow("k")
		assert.True(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter, _ := frozenLimiter(t, 0.001, 1)

		ok, _ := limiter.Allow("session:aa")
		assert.True(t, ok)
		ok, _ = limiter.Allow("session:aa")
		assert.False(t, ok)
		ok, _ = limiter.Allow("session:bb")
		assert.True(t, ok)
	})
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	limiter, now := frozenLimiter(t, 1, 1)

	limiter.Allow("old")
	*now = now.Add(30 * time.Second)
	limiter.Allow("recent")

	*now = now.Add(45 * time.Second)
	limiter.evictIdle()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "old")
	assert.Contains(t, limiter.buckets, "recent")
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		headers    map[string]string
		name       string
		target     string
		remoteAddr string
		want       string
		wantPrefix string
	}{
		{
			name:       "plain remote addr",
			target:     "/v1/sync/handshake",
			remoteAddr: "192.168.1.1:8080",
			want:       "ip:192.168.1.1",
		},
		{
			name:       "remote addr without port",
			target:     "/v1/sync/handshake",
			remoteAddr: "192.168.1.1",
			want:       "ip:192.168.1.1",
		},
		{
			name:       "first forwarded address",
			target:     "/v1/sync/handshake",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1"},
			want:       "ip:203.0.113.1",
		},
		{
			name:       "real ip header",
			target:     "/v1/sync/handshake",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.5"},
			want:       "ip:203.0.113.5",
		},
		{
			name:       "bearer session",
			target:     "/v1/sync/pull",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"Authorization": "Bearer secret-token"},
			wantPrefix: "session:",
		},
		{
			name:       "stream token in query",
			target:     "/v1/sync/stream?workspaceId=ws&token=secret-token",
			remoteAddr: "10.0.0.1:1234",
			wantPrefix: "session:",
		},
		{
			name:       "non bearer scheme falls back to ip",
			target:     "/v1/sync/pull",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"Authorization": "Basic dXNlcg=="},
			want:       "ip:10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got := ClientKey(req)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), got)
			assert.NotContains(t, got, "secret-token")
			assert.Len(t, got, len(tt.wantPrefix)+16)
		})
	}
}

func TestClientKey_SameTokenSameKey(t *testing.T) {
	header := httptest.NewRequest(http.MethodPost, "/v1/sync/pull", nil)
	header.Header.Set("Authorization", "Bearer tok-1")
	query := httptest.NewRequest(http.MethodGet, "/v1/sync/stream?token=tok-1", nil)
	other := httptest.NewRequest(http.MethodPost, "/v1/sync/pull", nil)
	other.Header.Set("Authorization", "Bearer tok-2")

	assert.Equal(t, ClientKey(header), ClientKey(query))
	assert.NotEqual(t, ClientKey(header), ClientKey(other))
}

func TestRateLimitByPathMiddleware(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	mw, stop := RateLimitByPathMiddleware([]PathRateLimit{
		{Path: "/v1/sync/handshake", RPS: 0.001, Burst: 1},
	}, 0.001, 3, logger)
	defer stop()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.168.5.5:1"
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("handshake has stricter limit", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call("/v1/sync/handshake", "").Code)

		w := call("/v1/sync/handshake", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "1000", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
		assert.Contains(t, logBuf.String(), "Rate limit exceeded")
		assert.Contains(t, logBuf.String(), "192.168.5.5")
	})

	t.Run("sync paths share default limit per device", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, call("/v1/sync/pull", "device-a").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, call("/v1/sync/push", "device-a").Code)

		// другое устройство с того же IP не задето
		assert.Equal(t, http.StatusOK, call("/v1/sync/push", "device-b").Code)
	})
}

func TestWriteTooManyRequests_RetryAfter(t *testing.T) {
	tests := []struct {
		wait time.Duration
		want string
	}{
		{wait: 0, want: "1"},
		{wait: 300 * time.Millisecond, want: "1"},
		{wait: 2 * time.Second, want: "2"},
		{wait: 2500 * time.Millisecond, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.wait.String(), func(t *testing.T) {
			w := httptest.NewRecorder()
			writeTooManyRequests(w, tt.wait)
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Retry-After"))
		})
	}
}
