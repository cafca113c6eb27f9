package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/model"
)

type fakeResolver struct {
	session *model.Session
	err     error
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*model.Session, error) {
	f.calls++
	return f.session, f.err
}

var testCookie = CookieConfig{Name: "reacts_session", TTL: time.Hour}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveSession(t *testing.T, resolver SessionResolver, cookie string) (*httptest.ResponseRecorder, *model.Session) {
	t.Helper()

	var seen *model.Session
	h := Session(SessionConfig{Logger: discardLogger(), Resolver: resolver, Cookie: testCookie})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = auth.SessionFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestSession_NoCookie(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{}
	rec, seen := serveSession(t, resolver, "")

	if seen != nil {
		t.Error("expected no session")
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times without a cookie", resolver.calls)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie written without a session")
	}
}

func TestSession_Attached(t *testing.T) {
	t.Parallel()

	want := &model.Session{ID: "sess_x", UserID: "user-1", Email: "ada@example.com"}
	_, seen := serveSession(t, &fakeResolver{session: want}, "sess_x")

	if seen != want {
		t.Fatalf("session = %+v, want %+v", seen, want)
	}
}

func TestSession_StaleCookieCleared(t *testing.T) {
	t.Parallel()

	rec, seen := serveSession(t, &fakeResolver{}, "sess_gone")

	if seen != nil {
		t.Error("expected no session")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != testCookie.Name || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
}

func TestSession_StoreErrorKeepsCookie(t *testing.T) {
	t.Parallel()

	rec, seen := serveSession(t, &fakeResolver{err: errors.New("redis down")}, "sess_x")

	if seen != nil {
		t.Error("expected no session")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie touched on store error")
	}
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		path       string
		session    *model.Session
		wantStatus int
		wantHeader string
	}{
		{name: "signed in", path: "/dashboard", session: &model.Session{UserID: "u"}, wantStatus: http.StatusNoContent},
		{name: "page redirects", path: "/dashboard", wantStatus: http.StatusSeeOther, wantHeader: "/login"},
		{name: "api gets 401", path: "/api/sales", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.session != nil {
				req = req.WithContext(auth.ContextWithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()
			RequireSession(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHeader != "" && rec.Header().Get("Location") != tt.wantHeader {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantHeader)
			}
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetSessionCookie(rec, CookieConfig{Name: "reacts_session", Secure: true, TTL: time.Hour}, "sess_abc")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	c := cookies[0]
	if c.Value != "sess_abc" || !c.HttpOnly || !c.Secure || c.Path != "/" || c.MaxAge != 3600 {
		t.Errorf("unexpected cookie: %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}
