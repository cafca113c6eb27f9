// Package repository reads and writes the sales table in Postgres directly,
// for deployments that set SALES_BACKEND=postgres instead of going through
// the hosted backend's REST layer.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the sales table. Each dashboard request runs at most one
// statement, so a small pool is enough; sessions live in Redis.
const (
	maxConns          = 8
	minConns          = 1
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
	statementTimeout  = "5s"
	applicationName   = "reacts"
)

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// poolConfig parses databaseURL and applies the sales pool settings.
// Settings already present in the URL win over the defaults.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnIdleTime = maxConnIdleTime
	config.HealthCheckPeriod = healthCheckPeriod

	params := config.ConnConfig.RuntimeParams
	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}
	// A hung query must not outlive the request that issued it.
	if params["statement_timeout"] == "" {
		params["statement_timeout"] = statementTimeout
	}

	return config, nil
}

// Ping checks database connectivity. Used by /readyz.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool for test setup.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
