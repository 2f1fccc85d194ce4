// Package main is the entrypoint for the Pixelsmith API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/pixelsmith/pixelsmith/internal/cache"
	"github.com/pixelsmith/pixelsmith/internal/config"
	"github.com/pixelsmith/pixelsmith/internal/events"
	"github.com/pixelsmith/pixelsmith/internal/generation"
	"github.com/pixelsmith/pixelsmith/internal/handler"
	"github.com/pixelsmith/pixelsmith/internal/identity"
	"github.com/pixelsmith/pixelsmith/internal/metrics"
	"github.com/pixelsmith/pixelsmith/internal/middleware"
	"github.com/pixelsmith/pixelsmith/internal/repository"
	"github.com/pixelsmith/pixelsmith/internal/server"
	"github.com/pixelsmith/pixelsmith/internal/service"
	"github.com/pixelsmith/pixelsmith/internal/storage"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load .env if present (local development convenience)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

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
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize object storage
	store, err := storage.New(storage.Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		logger.Error("failed to initialize object storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("object storage ready", slog.String("bucket", cfg.S3Bucket))

	// Upstream clients
	genClient := generation.NewClient(
		cfg.GenerationAPIURL,
		cfg.GenerationAPIToken,
		cfg.GenerationModel,
		cfg.GenerationTimeout,
	)
	identityClient := identity.NewClient(identity.Config{
		AuthorizeURL: cfg.IdentityAuthorizeURL,
		TokenURL:     cfg.IdentityTokenURL,
		UserInfoURL:  cfg.IdentityUserInfoURL,
		ClientID:     cfg.IdentityClientID,
		ClientSecret: cfg.IdentityClientSecret,
		RedirectURL:  cfg.RedirectURL(),
	})

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	publisher := events.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
	genService := service.NewGenerationService(
		genClient,
		store,
		repo,
		repo,
		cacheClient,
		publisher,
		logger,
		metricsRecorder,
	)
	authService := service.NewAuthService(
		identityClient,
		repo,
		cacheClient,
		cfg.SessionTTL,
		cfg.StartingCredits,
		logger,
	)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	generationHandler := handler.NewGenerationHandler(genService, logger)
	profileHandler := handler.NewProfileHandler(authService, genService, logger)
	authHandler := handler.NewAuthHandler(authService, cfg.BaseURL, cfg.SessionTTL, cfg.IsProduction(), logger)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	adminHandler := handler.NewAdminHandler(repo, repo, repo, repo, logger)

	// Setup router
	r := setupRouter(routerDeps{
		h:                 h,
		healthHandler:     healthHandler,
		generationHandler: generationHandler,
		profileHandler:    profileHandler,
		authHandler:       authHandler,
		apiKeyHandler:     apiKeyHandler,
		metricsHandler:    metricsHandler,
		adminHandler:      adminHandler,
		repo:              repo,
		cacheClient:       cacheClient,
		cfg:               cfg,
		logger:            logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Events worker: consumes generation events and maintains usage rollups.
	worker := events.NewWorker(cacheClient.Client(), repo, logger, events.NewConsumerID(), metricsRecorder)
	srv.OnShutdown("events-worker", worker.Shutdown)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("events worker stopped", "error", err)
		}
	}()

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"model", cfg.GenerationModel,
	)

	if err := srv.Run(); err != nil {
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

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	h                 *handler.Handler
	healthHandler     *handler.HealthHandler
	generationHandler *handler.GenerationHandler
	profileHandler    *handler.ProfileHandler
	authHandler       *handler.AuthHandler
	apiKeyHandler     *handler.APIKeyHandler
	metricsHandler    *handler.MetricsHandler
	adminHandler      *handler.AdminHandler
	repo              *repository.Repository
	cacheClient       *cache.Cache
	cfg               *config.Config
	logger            *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := d.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowedOrigins = origins
	}
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.healthHandler.Healthz)
	r.Get("/readyz", d.healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", d.h.Hello)

	// Operational metrics (no auth; expose behind the ingress, not publicly)
	r.Get("/metrics", d.metricsHandler.Metrics)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cacheClient,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      d.logger,
		Cache:       d.cacheClient,
		APIEnabled:  d.cfg.RateLimitEnabled,
		AuthEnabled: d.cfg.RateLimitEnabled,
		AuthRPS:     d.cfg.AuthRateLimitRPS,
		AuthBurst:   d.cfg.AuthRateLimitBurst,
	}

	// Browser login flow with IP-based rate limiting (no auth required)
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))
		r.Get("/login", d.authHandler.Login)
		r.Get("/callback", d.authHandler.Callback)
		r.Post("/logout", d.authHandler.Logout)
	})

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		// Apply auth and rate limit middleware to all API routes
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))
		r.Use(middleware.RequireJSON())

		// Image generation (a credit is reserved per request)
		r.Route("/generations", func(r chi.Router) {
			r.With(middleware.RequireWrite()).Post("/", d.generationHandler.Create)
			r.With(middleware.RequireRead()).Get("/", d.generationHandler.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.generationHandler.Get)
		})

		// Authenticated user profile and credit balance
		r.With(middleware.RequireRead()).Get("/me", d.profileHandler.Me)

		// API key management
		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.apiKeyHandler.ListAPIKeys)
			r.With(middleware.RequireWrite()).Post("/", d.apiKeyHandler.CreateAPIKey)
			r.With(middleware.RequireWrite()).Delete("/{key_id}", d.apiKeyHandler.RevokeAPIKey)
			r.With(middleware.RequireWrite()).Post("/{key_id}/rotate", d.apiKeyHandler.RotateAPIKey)
		})

		// Admin lookups (admin-scoped API keys only)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users/{user_id}/generations", d.adminHandler.UserGenerations)
			r.Get("/users/{user_id}/api-keys", d.adminHandler.UserAPIKeys)
			r.Get("/users/{user_id}/usage", d.adminHandler.UserUsage)
			r.Post("/users/{user_id}/credits", d.adminHandler.GrantCredits)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.h.NotFound)
	r.MethodNotAllowed(d.h.MethodNotAllowed)

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
