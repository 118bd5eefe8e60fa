// Package main is the entrypoint for the bank API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shaikwasi806/bank-app/internal/cache"
	"github.com/shaikwasi806/bank-app/internal/config"
	"github.com/shaikwasi806/bank-app/internal/handler"
	"github.com/shaikwasi806/bank-app/internal/metrics"
	"github.com/shaikwasi806/bank-app/internal/middleware"
	"github.com/shaikwasi806/bank-app/internal/relay"
	"github.com/shaikwasi806/bank-app/internal/server"
	"github.com/shaikwasi806/bank-app/internal/service"
	"github.com/shaikwasi806/bank-app/internal/session"
	"github.com/shaikwasi806/bank-app/internal/store"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize storage
	st, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to initialize store",
			slog.String("backend", cfg.StoreBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store ready", "backend", cfg.StoreBackend)

	// Initialize cache (optional)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
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
	}

	// Issued-token registry: Redis when available, process memory otherwise
	var registry session.Registry
	if cacheClient != nil {
		registry = session.NewRedisRegistry(cacheClient)
	} else {
		registry = session.NewMemoryRegistry()
	}

	issuer := session.NewIssuer([]byte(cfg.SessionSecret), cfg.SessionTTL, registry)

	// Initialize services
	recorder := metrics.NewInMemory()
	accountService := service.NewAccountService(st, issuer, recorder)
	ledgerService := service.NewLedgerService(st, recorder)
	relayClient := relay.NewClient(cfg.ChatUpstreamURL, cfg.ChatAPIKey, cfg.ChatTimeout, recorder)

	// Initialize handlers
	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}
	healthHandler := handler.NewHealthHandler(st, cacheChecker)
	accountHandler := handler.NewAccountHandler(accountService, logger, cfg.SessionTTL, !cfg.IsDevelopment())
	bankHandler := handler.NewBankHandler(accountService, ledgerService, logger)
	chatHandler := handler.NewChatHandler(relayClient, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	// Setup router
	r := setupRouter(healthHandler, accountHandler, bankHandler, chatHandler, metricsHandler, issuer, cacheClient, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store_backend", cfg.StoreBackend,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newStore builds the configured storage backend.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return store.NewFileStore(cfg.StoreFile, cfg.InitialBalance)
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.InitialBalance)
	default:
		return store.NewMemoryStore(cfg.InitialBalance), nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	accountHandler *handler.AccountHandler,
	bankHandler *handler.BankHandler,
	chatHandler *handler.ChatHandler,
	metricsHandler *handler.MetricsHandler,
	issuer *session.Issuer,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Internal metrics endpoint
	r.Get("/internal/metrics", metricsHandler.Metrics)

	sessionCfg := middleware.SessionConfig{
		Logger:    logger,
		Validator: issuer,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Cache:        cacheClient,
		LoginEnabled: cfg.RateLimitLoginEnabled,
		LoginRPM:     cfg.RateLimitLoginRPM,
		LoginBurst:   cfg.RateLimitLoginBurst,
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", accountHandler.Register)
		r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", accountHandler.Login)
		r.Post("/logout", accountHandler.Logout)
		r.Post("/ai/chat", chatHandler.Chat)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))

			r.Get("/balance", bankHandler.Balance)
			r.Post("/transfer", bankHandler.Transfer)
			r.Get("/transactions", bankHandler.Transactions)
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

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
