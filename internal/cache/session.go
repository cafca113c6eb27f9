package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/model"
)

// sessionPrefix is the Redis key prefix for signed-in sessions.
const sessionPrefix = "session:"

func sessionKey(id string) string {
	return sessionPrefix + auth.SessionKey(id)
}

// GetSession loads a session by cookie value.
// Returns nil, nil on a miss or a corrupted entry.
func (c *Cache) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil //nolint:nilerr
	}
	s.ID = id
	return &s, nil
}

// SaveSession stores s under its ID for ttl.
func (c *Cache) SaveSession(ctx context.Context, s *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := c.client.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
