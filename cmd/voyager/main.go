package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/voyager-travel/voyager/internal/app"
	"github.com/voyager-travel/voyager/internal/audit"
	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/dashboard"
	"github.com/voyager-travel/voyager/internal/documents"
	"github.com/voyager-travel/voyager/internal/invoices"
	"github.com/voyager-travel/voyager/internal/ledger"
	"github.com/voyager-travel/voyager/internal/observability"
	"github.com/voyager-travel/voyager/internal/payments"
	"github.com/voyager-travel/voyager/internal/platform/cache"
	"github.com/voyager-travel/voyager/internal/platform/db"
	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/reminders"
	"github.com/voyager-travel/voyager/internal/servicelines"
	"github.com/voyager-travel/voyager/internal/shared"
	"github.com/voyager-travel/voyager/internal/users"
	"github.com/voyager-travel/voyager/internal/vendors"
	"github.com/voyager-travel/voyager/jobs"
	"github.com/voyager-travel/voyager/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.DBOptions("voyager"))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	services, err := app.NewServices(ctx, cfg, dbpool, redisClient, logger)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()

	// Another API replica may bump the dashboard version.
	services.DashboardCache.Subscribe(ctx, func(version int64) {
		logger.Debug("dashboard cache bumped", slog.Int64("version", version))
	})

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(cfg.QueueOptions())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	adminOnly := auth.RequireRole(logger, shared.RoleAdmin)
	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		Tokens:  services.Auth.Tokens(),
		Checks: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		AuthHandler:        auth.NewHandler(logger, services.Auth),
		QueriesHandler:     queries.NewHandler(logger, services.Queries),
		ServiceLineHandler: servicelines.NewHandler(logger, services.ServiceLines),
		VendorsHandler:     vendors.NewHandler(logger, services.Vendors, adminOnly),
		LedgerHandler:      ledger.NewHandler(services.Ledger, logger),
		PaymentsHandler:    payments.NewHandler(logger, services.Payments),
		InvoicesHandler:    invoices.NewHandler(logger, services.Invoices),
		DocumentsHandler:   documents.NewHandler(logger, services.Documents),
		RemindersHandler:   reminders.NewHandler(logger, services.Reminders),
		DashboardHandler:   dashboard.NewHandler(logger, services.Dashboard),
		ReportHandler:      report.NewHandler(services.PDF, logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		AuditHandler:       audit.NewHandler(logger, services.Audit, adminOnly),
		UsersHandler:       users.NewHandler(logger, services.Users, adminOnly),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
