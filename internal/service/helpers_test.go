package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/baas/memory"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/testutil"
)

const testSecret = "service-test-secret"

type fakeSessions struct {
	mu   sync.Mutex
	data map[string]model.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: make(map[string]model.Session)}
}

func (f *fakeSessions) GetSession(_ context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessions) SaveSession(_ context.Context, s *model.Session, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[s.ID] = *s
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeSessions) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func newMemoryBackend(t *testing.T, ttl time.Duration) *memory.Backend {
	t.Helper()
	return memory.New(memory.Options{
		JWTSecret:  testSecret,
		PublicURL:  "http://localhost:3000",
		TokenTTL:   ttl,
		HashParams: auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
		Logger:     testutil.DiscardLogger(),
	})
}

type authEnv struct {
	backend  *memory.Backend
	sessions *fakeSessions
	svc      *AuthService
	metrics  *metrics.InMemoryRecorder
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	backend := newMemoryBackend(t, time.Hour)
	sessions := newFakeSessions()
	rec := metrics.NewInMemory()
	svc := NewAuthService(backend, sessions, AuthConfig{SessionTTL: time.Hour, JWTSecret: testSecret}, rec, testutil.DiscardLogger())
	return &authEnv{backend: backend, sessions: sessions, svc: svc, metrics: rec}
}

func (e *authEnv) signedIn(t *testing.T) *model.Session {
	t.Helper()
	ctx := context.Background()
	_, err := e.svc.SignUp(ctx, "ann@example.com", "password1", "Ann")
	require.NoError(t, err)
	session, err := e.svc.SignIn(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	return session
}
