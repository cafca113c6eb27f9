package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reacts/reacts/internal/cache"
)

// IPRateLimiter is the token-bucket check the middleware relies on.
type IPRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, group, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter IPRateLimiter
	Enabled bool
	// Group namespaces the buckets, e.g. "auth".
	Group             string
	RequestsPerMinute int
	Burst             int
}

// RateLimitIP returns middleware that rate limits requests per client IP.
// Browsers posting a form are redirected back to the form with an error;
// everything else gets a 429.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), cfg.Group, ip, cfg.RequestsPerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("group", cfg.Group),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.RequestsPerMinute, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("group", cfg.Group),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				writeRateLimitError(w, r, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// formPages maps auth form actions to the page that renders the form.
var formPages = map[string]string{
	"/auth/login":           "/login",
	"/auth/signup":          "/signup",
	"/auth/forgot-password": "/forgot-password",
	"/auth/reset-password":  "/auth/reset-password",
}

// formPage is where a throttled form post is sent back to.
func formPage(actionPath string) string {
	if page, ok := formPages[actionPath]; ok {
		return page
	}
	return actionPath
}

// RateLimitMessage is the flat message shown when a client is throttled.
func RateLimitMessage(retryAfter time.Duration) string {
	return fmt.Sprintf("Too many requests. Try again in %d seconds.", int(retryAfter.Seconds()))
}

func writeRateLimitError(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	msg := RateLimitMessage(retryAfter)

	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprintf(w, `{"error":%q}`, msg)
		return
	}

	http.Redirect(w, r, formPage(r.URL.Path)+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers for proxied requests.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
