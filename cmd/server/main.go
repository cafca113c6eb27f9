// Package main is the entrypoint for the reacts web server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/baas/memory"
	"github.com/reacts/reacts/internal/cache"
	"github.com/reacts/reacts/internal/config"
	"github.com/reacts/reacts/internal/handler"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/repository"
	"github.com/reacts/reacts/internal/server"
	"github.com/reacts/reacts/internal/service"
)

// backend is everything the app needs from the hosted backend.
type backend interface {
	baas.AuthProvider
	baas.ObjectStore
	baas.SalesTable
}

// handlers groups the route handlers built in main.
type handlers struct {
	pages   *handler.Handler
	health  *handler.HealthHandler
	auth    *handler.AuthHandler
	account *handler.AccountHandler
	sales   *handler.SalesHandler
	metrics *handler.MetricsHandler
	storage http.Handler
}

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	var recorder metrics.Recorder = metrics.NewNoop()
	var snapshotter metrics.Snapshotter
	if cfg.MetricsEnabled {
		inMemory := metrics.NewInMemory()
		recorder, snapshotter = inMemory, inMemory
	}

	// Initialize backend
	h := &handlers{}
	var be backend
	var jwtSecret string
	switch cfg.BaaSMode {
	case config.BaaSModeMemory:
		mem := memory.New(memory.Options{
			JWTSecret: cfg.BaaSJWTSecret,
			PublicURL: publicURL(cfg),
			Logger:    logger,
		})
		be, jwtSecret = mem, cfg.BaaSJWTSecret
		h.storage = mem.Handler()
		logger.Warn("using in-memory backend; data is lost on restart")
	default:
		client := baas.New(baas.Options{
			BaseURL: cfg.BaaSURL,
			AnonKey: cfg.BaaSAnonKey,
			Timeout: cfg.BaaSTimeout,
		})
		be = client
		logger.Info("using hosted backend", slog.String("url", redactURL(cfg.BaaSURL)))
	}

	// Initialize sales table
	var table baas.SalesTable = be
	var dbChecker handler.HealthChecker
	var repo *repository.Repository
	if cfg.SalesBackend == config.SalesBackendPostgres {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		table, dbChecker = repository.NewSalesTable(repo), repo
		logger.Info("connected to database")
	}

	// Initialize services
	authService := service.NewAuthService(be, cacheClient, service.AuthConfig{
		SessionTTL: cfg.SessionTTL,
		JWTSecret:  jwtSecret,
	}, recorder, logger)
	profileService := service.NewProfileService(be, be, service.ProfileConfig{
		AvatarBucket:   cfg.AvatarBucket,
		AvatarMaxBytes: cfg.AvatarMaxBytes,
	}, recorder, logger)
	salesService := service.NewSalesService(table, recorder, logger)

	// Initialize handlers
	h.pages, err = handler.New(profileService, logger)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}
	h.health = handler.NewHealthHandler(dbChecker, cacheClient, be)
	h.auth = handler.NewAuthHandler(authService, handler.AuthConfig{
		Cookie:  cookieConfig(cfg),
		SiteURL: cfg.SiteURL,
	}, recorder, logger)
	h.account = handler.NewAccountHandler(profileService, cfg.AvatarMaxBytes, logger)
	h.sales = handler.NewSalesHandler(salesService, recorder, logger)
	if snapshotter != nil {
		h.metrics = handler.NewMetricsHandler(snapshotter)
	}

	// Setup router
	r := setupRouter(h, authService, cacheClient, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Shutdown hooks run in reverse order: backend, database, then Redis.
	srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	if repo != nil {
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
	}
	if client, ok := be.(*baas.Client); ok {
		srv.OnShutdown("backend", func(context.Context) error { return client.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"site_url", cfg.SiteURL,
		"env", cfg.AppEnv,
		"baas_mode", cfg.BaaSMode,
		"sales_backend", cfg.SalesBackend,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func cookieConfig(cfg *config.Config) middleware.CookieConfig {
	return middleware.CookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: !cfg.IsDevelopment(),
		TTL:    cfg.SessionTTL,
	}
}

// publicURL is where this server is reachable, for in-memory object links.
func publicURL(cfg *config.Config) string {
	if cfg.SiteURL != "" {
		return cfg.SiteURL
	}
	return fmt.Sprintf("http://localhost:%d", cfg.AppPort)
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handlers,
	resolver middleware.SessionResolver,
	limiter middleware.IPRateLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	security := middleware.DefaultSecurityConfig()
	security.IsDevelopment = cfg.IsDevelopment()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(security))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.CORS(cfg.GetCORSAllowedOrigins()))
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:   logger,
		Resolver: resolver,
		Cookie:   cookieConfig(cfg),
	}))

	// Health endpoints (no auth required)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	if h.metrics != nil {
		r.Get("/metrics", h.metrics.Metrics)
	}

	r.Handle("/static/*", handler.Static())
	if h.storage != nil {
		r.Handle(memory.PublicPrefix+"*", h.storage)
	}

	// Public pages
	r.Get("/", h.pages.Landing)
	r.Get("/login", h.pages.Login())
	r.Get("/signup", h.pages.Signup())
	r.Get("/forgot-password", h.pages.ForgotPassword())
	r.Get("/verify-email", h.pages.VerifyEmail())
	r.Get("/error", h.pages.ErrorPage())

	// Auth actions; form posts are rate limited per client IP
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:            logger,
		Limiter:           limiter,
		Enabled:           cfg.RateLimitAuthEnabled,
		Group:             "auth",
		RequestsPerMinute: cfg.RateLimitAuthRPM,
		Burst:             cfg.RateLimitAuthBurst,
	}
	r.Route("/auth", func(r chi.Router) {
		r.Get("/callback", h.auth.Callback)
		r.Get("/reset-password", h.pages.ResetPassword())
		r.Post("/signout", h.auth.Signout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/login", h.auth.Login)
			r.Post("/signup", h.auth.Signup)
			r.Post("/forgot-password", h.auth.ForgotPassword)
			r.Post("/reset-password", h.auth.ResetPassword)
		})
	})

	// Signed-in routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/dashboard", h.pages.Dashboard)

		r.Route("/account", func(r chi.Router) {
			r.Get("/me", h.account.Me)
			r.Post("/profile", h.account.UpdateProfile)
			r.Post("/password", h.account.UpdatePassword)
			r.Post("/avatar", h.account.UploadAvatar)
			r.Delete("/avatar", h.account.RemoveAvatar)
		})

		r.Route("/api/sales", func(r chi.Router) {
			r.Get("/", h.sales.List)
			r.Post("/", h.sales.Create)
			r.Post("/delete", h.sales.DeleteMany)
			r.Post("/import", h.sales.Import)
			r.Post("/summary", h.sales.Summary)
			r.Get("/export", h.sales.Export)
			r.Patch("/{id}", h.sales.Update)
			r.Delete("/{id}", h.sales.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.pages.NotFound)
	r.MethodNotAllowed(h.pages.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
