package auth

import (
	"context"

	"github.com/reacts/reacts/internal/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession adds the session to the context.
func ContextWithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session, or nil when signed out.
func SessionFromContext(ctx context.Context) *model.Session {
	s, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return s
}

// MustSessionFromContext panics if the session middleware did not run.
func MustSessionFromContext(ctx context.Context) *model.Session {
	s := SessionFromContext(ctx)
	if s == nil {
		panic("session not found - ensure session middleware is applied")
	}
	return s
}

// UserIDFromContext returns "" when signed out.
func UserIDFromContext(ctx context.Context) string {
	s := SessionFromContext(ctx)
	if s == nil {
		return ""
	}
	return s.UserID
}

// AccessTokenFromContext returns "" when signed out.
func AccessTokenFromContext(ctx context.Context) string {
	s := SessionFromContext(ctx)
	if s == nil {
		return ""
	}
	return s.AccessToken
}
