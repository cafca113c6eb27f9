package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/model"
)

// SessionResolver loads the session behind a cookie value. It returns
// nil, nil when the cookie no longer names a usable session.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*model.Session, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Resolver SessionResolver
	Cookie   CookieConfig
}

// Session returns a middleware that attaches the signed-in session, if
// any, to the request context. It never rejects a request; use
// RequireSession on routes that need a user.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cfg.Cookie.Name)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := cfg.Resolver.Resolve(r.Context(), c.Value)
			if err != nil {
				// Keep the cookie; the store may only be briefly unavailable.
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if session == nil {
				ClearSessionCookie(w, cfg.Cookie)
				next.ServeHTTP(w, r)
				return
			}

			setLogUserID(r.Context(), session.UserID)
			ctx := auth.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects signed-out requests: JSON callers get a 401,
// browsers are redirected to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.SessionFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
