package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/reacts/reacts/internal/cache"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
	lastIP string
}

func (f *fakeLimiter) CheckIPRateLimit(_ context.Context, _, ip string, _, _ int) (*cache.RateLimitResult, error) {
	f.calls++
	f.lastIP = ip
	return f.result, f.err
}

func limited() *cache.RateLimitResult {
	return &cache.RateLimitResult{Allowed: false, ResetAt: time.Now().Add(30 * time.Second), RetryAfter: 30 * time.Second}
}

func serveRateLimited(limiter *fakeLimiter, req *http.Request) *httptest.ResponseRecorder {
	h := RateLimitIP(RateLimitConfig{
		Logger:            discardLogger(),
		Limiter:           limiter,
		Enabled:           true,
		Group:             "auth",
		RequestsPerMinute: 10,
		Burst:             5,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitIP_Allowed(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: time.Now()}}
	rec := serveRateLimited(limiter, httptest.NewRequest(http.MethodPost, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Errorf("X-RateLimit-Remaining = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitIP_FormRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action string
		page   string
	}{
		{"/auth/login", "/login"},
		{"/auth/signup", "/signup"},
		{"/auth/forgot-password", "/forgot-password"},
		{"/auth/reset-password", "/auth/reset-password"},
		{"/contact", "/contact"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			t.Parallel()

			rec := serveRateLimited(&fakeLimiter{result: limited()}, httptest.NewRequest(http.MethodPost, tt.action, nil))

			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatal(err)
			}
			if loc.Path != tt.page {
				t.Errorf("redirect path = %q, want %q", loc.Path, tt.page)
			}
			if got := loc.Query().Get("error"); got != "Too many requests. Try again in 30 seconds." {
				t.Errorf("error param = %q", got)
			}
			if rec.Header().Get("Retry-After") != "30" {
				t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRateLimitIP_JSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/sales", nil)
	rec := serveRateLimited(&fakeLimiter{result: limited()}, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRateLimitIP_FailOpen(t *testing.T) {
	t.Parallel()

	rec := serveRateLimited(&fakeLimiter{err: errors.New("redis down")}, httptest.NewRequest(http.MethodPost, "/signup", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimitIP_SkipsReads(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{result: limited()}
	rec := serveRateLimited(limiter, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK || limiter.calls != 0 {
		t.Fatalf("GET was rate limited: status %d, calls %d", rec.Code, limiter.calls)
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded for", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, want: "203.0.113.5"},
		{name: "real ip", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Real-IP": " 198.51.100.7 "}, want: "198.51.100.7"},
		{name: "no port", remoteAddr: "192.0.2.9", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
