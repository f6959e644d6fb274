package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/paysync/internal"
	"github.com/dukerupert/paysync/internal/billing"
	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/events"
	"github.com/dukerupert/paysync/internal/handler"
	"github.com/dukerupert/paysync/internal/handler/api"
	"github.com/dukerupert/paysync/internal/handler/webhook"
	"github.com/dukerupert/paysync/internal/memory"
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/dukerupert/paysync/internal/postgres"
	"github.com/dukerupert/paysync/internal/redis"
	"github.com/dukerupert/paysync/internal/repository"
	"github.com/dukerupert/paysync/internal/routes"
	"github.com/dukerupert/paysync/internal/server"
	"github.com/dukerupert/paysync/internal/service"
	"github.com/dukerupert/paysync/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	appName          = "paysync"
	metricsNamespace = "paysync"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "Stripe subscription intake and webhook reconciliation service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Load environment from `FILE`",
				Value:   ".env",
				EnvVars: []string{"PAYSYNC_ENV_FILE"},
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "Manage database migrations",
				Subcommands: []*cli.Command{
					migrateCommand(internal.MigrateUp, "Apply all pending migrations"),
					migrateCommand(internal.MigrateDown, "Roll back the latest migration"),
					migrateCommand(internal.MigrateStatus, "Print migration status"),
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func migrateCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			cfg, err := internal.NewConfig(c.String("env-file"))
			if err != nil {
				return fmt.Errorf("config initialization failed: %w", err)
			}
			db, err := internal.OpenMigrationDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return internal.Migrate(db, name)
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := internal.NewConfig(c.String("env-file"))
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, logger)
}

func run(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) error {
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := telemetry.NewBusinessMetrics(metricsNamespace, reg)

	// Persistence
	var (
		store  domain.SubscriptionStore
		ping   func(context.Context) error
		ledger domain.EventLedger
		repo   repository.Querier
		dbPing func(context.Context) error
	)

	if cfg.NeedsDatabase() {
		logger.Info().Msg("Running database migrations...")
		db, err := internal.OpenMigrationDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		err = internal.RunMigrations(db)
		db.Close()
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			URL:           cfg.DatabaseURL,
			RetryAttempts: 5,
			RetryInterval: time.Second,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info().Msg("Database connection established")

		repo = repository.New(pool)
		dbPing = postgres.Healthcheck(pool)
	}

	switch cfg.StoreBackend {
	case internal.BackendPostgres:
		s := postgres.NewSubscriptionStore(repo, dbPing)
		store, ping = s, s.Ping
	default:
		logger.Warn().Msg("Using in-memory subscription store; records are lost on restart")
		s := memory.NewSubscriptionStore()
		store, ping = s, s.Ping
	}

	switch cfg.Ledger.Backend {
	case internal.BackendPostgres:
		ledger = postgres.NewEventLedger(repo)
	case internal.BackendRedis:
		client, err := redis.Connect(ctx, cfg.Ledger.RedisURL, 5, time.Second)
		if err != nil {
			return err
		}
		defer client.Close()
		ledger = redis.NewEventLedger(client, cfg.Ledger.TTL)
	case internal.BackendMemory:
		ledger = memory.NewEventLedger()
	}
	logger.Info().
		Str("store", cfg.StoreBackend).
		Str("ledger", cfg.Ledger.Backend).
		Msg("Persistence initialized")

	// Status-change publishing
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL, appName)
		if err != nil {
			return err
		}
		defer func() { _ = nc.Drain() }()
		publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
		logger.Info().Str("prefix", cfg.NATS.SubjectPrefix).Msg("Publishing status changes to NATS")
	}

	// Billing provider
	provider, err := newProvider(cfg, businessMetrics, logger)
	if err != nil {
		return err
	}

	reconciler, err := service.NewReconciler(service.ReconcilerConfig{
		Verifier:    provider,
		Store:       store,
		Ledger:      ledger,
		Publisher:   publisher,
		Metrics:     businessMetrics,
		Logger:      logger,
		RejectStale: cfg.Webhook.RejectStale,
	})
	if err != nil {
		return err
	}
	intake := service.NewIntakeService(provider, businessMetrics, logger)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
		IdleTimeout:       time.Minute,
	})
	defer limiter.Stop()

	srv := server.New(server.Config{
		Port:            cfg.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		Production:      cfg.Env == "prod",
	}, middleware.NewMetrics(metricsNamespace, reg), logger)

	e := srv.Echo()
	routes.RegisterSystemRoutes(e, routes.SystemDeps{
		HealthHandler:  handler.NewHealthHandler(ping),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	routes.RegisterAPIRoutes(e, routes.APIDeps{
		SubscribeHandler:    api.NewSubscribeHandler(intake),
		SubscriptionHandler: api.NewSubscriptionHandler(store),
		AdminToken:          cfg.AdminAPIToken,
		RateLimiter:         limiter,
	})
	routes.RegisterWebhookRoutes(e, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(reconciler, webhook.StripeWebhookConfig{
			AckMode: webhook.AckMode(cfg.Webhook.AckMode),
		}).HandleWebhook,
		MaxBodySize: cfg.Webhook.MaxBodySize,
	})
	if cfg.AdminAPIToken == "" {
		logger.Info().Msg("ADMIN_API_TOKEN not set; subscription lookup endpoint disabled")
	}

	logger.Info().
		Uint16("port", cfg.Port).
		Str("env", cfg.Env).
		Str("ack_mode", cfg.Webhook.AckMode).
		Msg("Starting server")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func newProvider(cfg *internal.Config, metrics *telemetry.BusinessMetrics, logger zerolog.Logger) (billing.Provider, error) {
	if cfg.BillingProvider == internal.ProviderMock {
		logger.Warn().Msg("Using mock billing provider; no calls reach Stripe")
		p := billing.NewMockProvider()
		p.WebhookSecret = cfg.Stripe.WebhookSecret
		if p.WebhookSecret == "" {
			logger.Warn().Msg("STRIPE_WEBHOOK_SECRET not set; webhook signatures are not verified")
		}
		return p, nil
	}

	stripeConfig := billing.StripeConfig{
		APIKey:           cfg.Stripe.SecretKey,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		WebhookTolerance: cfg.Stripe.WebhookTolerance,
		MaxRetries:       cfg.Stripe.MaxRetries,
		Timeout:          cfg.Stripe.Timeout,
	}
	p, err := billing.NewStripeProvider(stripeConfig, billing.WithLatencyObserver(metrics.ObserveStripeLatency))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info().Bool("test_mode", stripeConfig.IsTestMode()).Msg("Stripe billing provider initialized")
	return p, nil
}
