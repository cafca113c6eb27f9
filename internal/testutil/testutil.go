package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/reacts/reacts/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSalesSchema drops and recreates the sales table for tests.
func ResetSalesSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_sales")
}

func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, dir := range []string{"down", "up"} {
		path := filepath.Join(root, "migrations", name+"."+dir+".sql")
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s migration: %w", dir, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s migration: %w", dir, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestSaleInput creates a complete sale input.
func NewTestSaleInput(product, amount string) model.SaleInput {
	return model.SaleInput{
		Product: product,
		Status:  "paid",
		Method:  "card",
		Amount:  amount,
	}
}

// NewTestSale creates a stored-looking sale with sensible defaults.
func NewTestSale(t testing.TB, id, amount string) *model.Sale {
	t.Helper()
	return &model.Sale{
		ID:        id,
		Product:   "Product " + id,
		Status:    "paid",
		Method:    "card",
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestSession creates a signed-in session for userID.
func NewTestSession(t testing.TB, userID string) *model.Session {
	t.Helper()
	return &model.Session{
		ID:           UniqueID("sess"),
		UserID:       userID,
		Email:        userID + "@example.com",
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
