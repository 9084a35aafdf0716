// Package main is the entrypoint for the Solidario API server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/solidario/solidario/internal/cache"
	"github.com/solidario/solidario/internal/chain"
	"github.com/solidario/solidario/internal/config"
	"github.com/solidario/solidario/internal/handler"
	"github.com/solidario/solidario/internal/mailing"
	"github.com/solidario/solidario/internal/metrics"
	"github.com/solidario/solidario/internal/middleware"
	"github.com/solidario/solidario/internal/model"
	"github.com/solidario/solidario/internal/repository"
	"github.com/solidario/solidario/internal/server"
	"github.com/solidario/solidario/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	denominations, err := cfg.GetPaymentDenominations()
	if err != nil {
		logger.Error("invalid payment denominations", "error", err)
		os.Exit(1)
	}

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

	recorder := metrics.NewInMemory()

	// Mailing pipeline uses its own database/sql connection so the
	// polling worker never competes with the request pool.
	var publisher service.SubscriberQueue
	var mailingWorker *mailing.Worker
	if cfg.MailingEnabled() {
		mailDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open mailing database", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		defer mailDB.Close()

		mailRepo := mailing.NewRepository(mailDB)
		publisher = mailing.NewPublisher(mailRepo, cfg.MailingGroupID, logger, recorder)
		mailClient := mailing.NewClient(cfg.MailingURL, cfg.MailingAPIKey)
		mailingWorker = mailing.NewWorker(mailRepo, mailClient, logger, recorder)
	} else {
		logger.Info("mailing integration disabled")
	}

	verifier := chain.NewHTTPVerifier(
		chain.NewClient(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleTimeout),
		logger,
	)

	bonuses := service.BonusPolicy{
		DirectBonus:    model.Amount(cfg.DirectBonusCents),
		HouseBonus:     model.Amount(cfg.HouseBonusCents),
		HouseAccountID: cfg.HouseAccountID,
	}
	payments := service.PaymentPolicy{Denominations: denominations}

	regService := service.NewRegistrationService(repo, bonuses, publisher, logger, recorder)
	payService := service.NewPaymentService(repo, verifier, payments, logger, recorder)
	subService := service.NewSubscriptionService(repo, cacheClient, cfg.SubscriptionTerm, logger, recorder)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	userHandler := handler.NewUserHandler(regService, logger)
	paymentHandler := handler.NewPaymentHandler(payService, logger)
	subHandler := handler.NewSubscriptionHandler(subService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(repo, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	r := setupRouter(routerDeps{
		health:  healthHandler,
		users:   userHandler,
		pay:     paymentHandler,
		subs:    subHandler,
		keys:    apiKeyHandler,
		metrics: metricsHandler,
		repo:    repo,
		cache:   cacheClient,
		cfg:     cfg,
		logger:  logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background workers stop after the HTTP server drains.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup

	if mailingWorker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mailingWorker.Run(workerCtx)
		}()
	}

	sweeper := service.NewSweeper(subService, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(workerCtx)
	}()

	srv.OnShutdown("workers", func(ctx context.Context) error {
		cancelWorkers()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"mailing_enabled", cfg.MailingEnabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

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

type routerDeps struct {
	health  *handler.HealthHandler
	users   *handler.UserHandler
	pay     *handler.PaymentHandler
	subs    *handler.SubscriptionHandler
	keys    *handler.APIKeyHandler
	metrics *handler.MetricsHandler
	repo    *repository.Repository
	cache   *cache.Cache
	cfg     *config.Config
	logger  *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))

	if origins := d.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Probes and internal metrics, no auth.
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/internal/metrics", d.metrics.Metrics)

	authCfg := middleware.AuthConfig{
		Logger:     d.logger,
		Repository: d.repo,
		Cache:      d.cache,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Cache:   d.cache,
		Enabled: d.cfg.RateLimitEnabled,
		RPS:     d.cfg.RateLimitPublicRPS,
		Burst:   d.cfg.RateLimitPublicBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))
		r.Use(middleware.Auth(authCfg))

		r.With(middleware.RequireWrite()).Post("/users", d.users.Register)
		r.With(middleware.RequireRead()).Get("/users/{id}", d.users.Get)
		r.With(middleware.RequireRead()).Get("/users/{id}/payments", d.pay.History)

		r.With(middleware.RequireWrite()).Post("/payments", d.pay.Claim)

		r.Route("/users/{id}/subscription", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.subs.Status)
			r.With(middleware.RequireWrite()).Post("/", d.subs.Activate)
			r.With(middleware.RequireWrite()).Post("/renew", d.subs.Renew)
		})

		r.With(middleware.RequireAdmin()).Post("/admin/subscriptions/expire", d.subs.ExpireAll)

		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireAdmin()).Post("/", d.keys.Create)
			r.With(middleware.RequireAdmin()).Delete("/{id}", d.keys.Revoke)
		})
	})

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
