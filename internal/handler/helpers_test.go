package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/baas/memory"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/service"
	"github.com/reacts/reacts/internal/testutil"
)

const testSecret = "handler-test-secret"

var testCookie = middleware.CookieConfig{Name: "reacts_session", TTL: time.Hour}

type memorySessions struct {
	mu   sync.Mutex
	data map[string]model.Session
}

func (m *memorySessions) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memorySessions) SaveSession(_ context.Context, s *model.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = *s
	return nil
}

func (m *memorySessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type testEnv struct {
	backend  *memory.Backend
	sessions *memorySessions
	metrics  *metrics.InMemoryRecorder

	authSvc *service.AuthService

	pages    *Handler
	auth     *AuthHandler
	account  *AccountHandler
	sales    *SalesHandler
	router   http.Handler
	fixedNow time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testutil.DiscardLogger()
	backend := memory.New(memory.Options{
		JWTSecret:  testSecret,
		PublicURL:  "http://localhost:3000",
		TokenTTL:   time.Hour,
		HashParams: auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
		Logger:     logger,
	})
	sessions := &memorySessions{data: make(map[string]model.Session)}
	rec := metrics.NewInMemory()

	authSvc := service.NewAuthService(backend, sessions, service.AuthConfig{SessionTTL: time.Hour, JWTSecret: testSecret}, rec, logger)
	profileSvc := service.NewProfileService(backend, backend, service.ProfileConfig{AvatarBucket: "avatars", AvatarMaxBytes: 1024}, rec, logger)
	salesSvc := service.NewSalesService(backend, rec, logger)

	pages, err := New(profileSvc, logger)
	require.NoError(t, err)

	env := &testEnv{
		backend:  backend,
		sessions: sessions,
		metrics:  rec,
		authSvc:  authSvc,
		pages:    pages,
		auth:     NewAuthHandler(authSvc, AuthConfig{Cookie: testCookie, SiteURL: "https://app.example.com"}, rec, logger),
		account:  NewAccountHandler(profileSvc, 1024, logger),
		sales:    NewSalesHandler(salesSvc, rec, logger),
		fixedNow: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	}
	env.sales.now = func() time.Time { return env.fixedNow }
	env.router = env.routes()
	return env
}

// routes mirrors the application router for the pieces under test.
func (e *testEnv) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:   testutil.DiscardLogger(),
		Resolver: e.authSvc,
		Cookie:   testCookie,
	}))

	r.Get("/", e.pages.Landing)
	r.Get("/login", e.pages.Login())
	r.Get("/dashboard", e.pages.Dashboard)
	r.Get("/auth/callback", e.auth.Callback)
	r.Post("/auth/login", e.auth.Login)
	r.Post("/auth/signup", e.auth.Signup)
	r.Post("/auth/signout", e.auth.Signout)
	r.Post("/auth/forgot-password", e.auth.ForgotPassword)
	r.Post("/auth/reset-password", e.auth.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Get("/account/me", e.account.Me)
		r.Post("/account/profile", e.account.UpdateProfile)
		r.Post("/account/password", e.account.UpdatePassword)
		r.Post("/account/avatar", e.account.UploadAvatar)
		r.Delete("/account/avatar", e.account.RemoveAvatar)

		r.Get("/api/sales", e.sales.List)
		r.Post("/api/sales", e.sales.Create)
		r.Post("/api/sales/delete", e.sales.DeleteMany)
		r.Post("/api/sales/import", e.sales.Import)
		r.Post("/api/sales/summary", e.sales.Summary)
		r.Get("/api/sales/export", e.sales.Export)
		r.Patch("/api/sales/{id}", e.sales.Update)
		r.Delete("/api/sales/{id}", e.sales.Delete)
	})

	r.NotFound(e.pages.NotFound)
	return r
}

// signIn registers and signs in a user, returning the session cookie value.
func (e *testEnv) signIn(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	_, err := e.authSvc.SignUp(ctx, "ann@example.com", "password1", "Ann")
	require.NoError(t, err)
	session, err := e.authSvc.SignIn(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	return session.ID
}

// do sends req through the router, attaching the session cookie when set.
func (e *testEnv) do(req *http.Request, sessionID string) *httptest.ResponseRecorder {
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// redirect parses the Location of a 303 response.
func redirect(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, "body: %s", rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie.Name {
			return c
		}
	}
	return nil
}
