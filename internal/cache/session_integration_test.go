//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/testutil"
)

func newIntegrationCache(t *testing.T) *Cache {
	t.Helper()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx := context.Background()
	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestSessionStore_RoundTrip(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	id, err := auth.NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}

	want := &model.Session{
		ID:           id,
		UserID:       "user-1",
		Email:        "a@example.com",
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := c.SaveSession(ctx, want, time.Minute); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := c.GetSession(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("GetSession = %v, %v", got, err)
	}
	if got.ID != id || got.UserID != want.UserID || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("GetSession = %+v, want %+v", got, want)
	}

	if err := c.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	got, err = c.GetSession(ctx, id)
	if err != nil || got != nil {
		t.Errorf("after delete GetSession = %v, %v, want miss", got, err)
	}
}

func TestCheckIPRateLimit_ExhaustsBurst(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := c.CheckIPRateLimit(ctx, "auth", "203.0.113.7", 1, 3)
		if err != nil || !res.Allowed {
			t.Fatalf("request %d should be allowed: %+v, %v", i, res, err)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "auth", "203.0.113.7", 1, 3)
	if err != nil {
		t.Fatalf("CheckIPRateLimit: %v", err)
	}
	if res.Allowed {
		t.Error("fourth request should be limited")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}

	other, _ := c.CheckIPRateLimit(ctx, "auth", "203.0.113.8", 1, 3)
	if !other.Allowed {
		t.Error("buckets are per IP")
	}
}
