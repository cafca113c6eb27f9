// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Backend modes.
const (
	BaaSModeRemote = "remote"
	BaaSModeMemory = "memory"

	SalesBackendREST     = "rest"
	SalesBackendPostgres = "postgres"
)

// Configuration errors.
var (
	ErrInvalidBaaSMode     = errors.New("BAAS_MODE must be remote or memory")
	ErrMissingBaaSURL      = errors.New("BAAS_URL and BAAS_ANON_KEY are required in remote mode")
	ErrMissingJWTSecret    = errors.New("BAAS_JWT_SECRET is required in memory mode")
	ErrInvalidSalesBackend = errors.New("SALES_BACKEND must be rest or postgres")
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required when SALES_BACKEND=postgres")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`

	// SiteURL is the public origin used in email links when a request
	// carries no Origin header (e.g., https://app.example.com).
	SiteURL string `env:"SITE_URL" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Hosted backend. "memory" runs an in-process backend for local work.
	BaaSMode      string        `env:"BAAS_MODE" envDefault:"remote"`
	BaaSURL       string        `env:"BAAS_URL"`
	BaaSAnonKey   string        `env:"BAAS_ANON_KEY"`
	BaaSJWTSecret string        `env:"BAAS_JWT_SECRET"`
	BaaSTimeout   time.Duration `env:"BAAS_TIMEOUT" envDefault:"10s"`

	// Sales table: through the backend's REST API or straight to Postgres.
	SalesBackend string `env:"SALES_BACKEND" envDefault:"rest"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// Cache (Redis): sessions and rate-limit buckets
	RedisURL string `env:"REDIS_URL,required"`

	// Sessions
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"reacts_session"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// Avatars
	AvatarBucket   string `env:"AVATAR_BUCKET" envDefault:"avatars"`
	AvatarMaxBytes int64  `env:"AVATAR_MAX_BYTES" envDefault:"2097152"`

	// Rate limiting of auth form posts, per client IP
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPM     int  `env:"RATE_LIMIT_AUTH_RPM" envDefault:"10"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 5MB, room for CSV imports and avatars)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"5242880"`

	// MetricsEnabled exposes in-memory counters on /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"false"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.BaaSMode {
	case BaaSModeRemote:
		if c.BaaSURL == "" || c.BaaSAnonKey == "" {
			return ErrMissingBaaSURL
		}
	case BaaSModeMemory:
		if c.BaaSJWTSecret == "" {
			return ErrMissingJWTSecret
		}
	default:
		return ErrInvalidBaaSMode
	}

	switch c.SalesBackend {
	case SalesBackendREST:
	case SalesBackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrInvalidSalesBackend
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; real environment variables win

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
