package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

// Recoverer is a middleware that recovers from panics.
// JSON callers get a 500 body; browsers are sent to the error page.
func Recoverer(logger *slog.Logger, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if devMode {
					debug.PrintStack()
				}

				if WantsJSON(r) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
					return
				}
				http.Redirect(w, r, "/error", http.StatusSeeOther)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// WantsJSON reports whether the caller expects a JSON response: the API
// and account endpoints, or any request that asks for JSON.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/account/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
