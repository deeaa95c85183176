package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/qrprime/internal"
	"github.com/dukerupert/qrprime/internal/billing"
	"github.com/dukerupert/qrprime/internal/events"
	"github.com/dukerupert/qrprime/internal/handler"
	"github.com/dukerupert/qrprime/internal/handler/api"
	"github.com/dukerupert/qrprime/internal/handler/webhook"
	"github.com/dukerupert/qrprime/internal/middleware"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/dukerupert/qrprime/internal/router"
	"github.com/dukerupert/qrprime/internal/routes"
	"github.com/dukerupert/qrprime/internal/service"
	"github.com/dukerupert/qrprime/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	metricsNamespace = "qrprime"
	shutdownTimeout  = 15 * time.Second
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the billing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations at startup")
}

func runServer(ctx context.Context, cfg *internal.Config, logger *slog.Logger) error {
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	defer flushSentry()

	if !skipMigrations {
		if err := migrate(ctx, cfg, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// Initialize pgx connection pool for application
	logger.Info("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	repo := repository.New(pool)

	// Initialize Stripe billing provider
	sc := stripeConfig(cfg)
	provider, err := billing.NewStripeProvider(sc, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized", "test_mode", sc.IsTestMode())

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := events.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = nats
	} else {
		logger.Info("NATS_URL not set, billing notifications disabled")
	}
	defer publisher.Close()

	// ==========================================================================
	// Metrics
	// ==========================================================================

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := telemetry.NewBusinessMetrics(reg, metricsNamespace)
	httpMetrics := middleware.NewMetrics(reg, metricsNamespace)

	// ==========================================================================
	// Services
	// ==========================================================================

	customers := service.NewCustomerDirectory(repo, provider, businessMetrics, logger)
	checkout := service.NewCheckoutService(repo, customers, provider, service.CheckoutConfig{
		FrontendURL: cfg.FrontendURL,
		TrialDays:   cfg.Billing.TrialDays,
	}, businessMetrics, logger)
	accountBilling := service.NewAccountBillingService(repo, repo, repo, customers, provider, cfg.FrontendURL, businessMetrics, logger)
	processor := service.NewWebhookProcessor(
		billing.NewStripeWebhook(sc),
		customers,
		repo,
		repo,
		publisher,
		service.WebhookConfig{StrictOrdering: cfg.Billing.StrictEventOrdering},
		businessMetrics,
		logger,
	)

	// ==========================================================================
	// Routes
	// ==========================================================================

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
		CleanupInterval:   time.Minute,
		KeyFunc:           middleware.AccountOrClientIP,
	})
	defer rateLimiter.Stop()

	securityConfig := middleware.SecurityHeadersConfig{HSTSMaxAge: 31536000}
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		router.Logger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		pingCtx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			handler.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authenticate := middleware.Authenticate([]byte(cfg.JWTSecret), repo)
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(processor),
	})
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		BillingHandler: api.NewBillingHandler(checkout, accountBilling),
		Authenticate:   authenticate,
		RateLimiter:    rateLimiter,
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		AdminHandler: api.NewAdminHandler(accountBilling),
		Authenticate: authenticate,
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.CORSAllowedOrigins)(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting billing server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
