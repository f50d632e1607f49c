package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/voyager-travel/voyager/internal/audit"
	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/dashboard"
	"github.com/voyager-travel/voyager/internal/documents"
	"github.com/voyager-travel/voyager/internal/invoices"
	"github.com/voyager-travel/voyager/internal/ledger"
	"github.com/voyager-travel/voyager/internal/payments"
	"github.com/voyager-travel/voyager/internal/platform/cache"
	"github.com/voyager-travel/voyager/internal/platform/storage"
	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/reminders"
	"github.com/voyager-travel/voyager/internal/servicelines"
	"github.com/voyager-travel/voyager/internal/shared"
	"github.com/voyager-travel/voyager/internal/users"
	"github.com/voyager-travel/voyager/internal/vendors"
	"github.com/voyager-travel/voyager/report"
)

// Services holds every domain service wired against shared infrastructure.
// The API server, the worker and voyagerctl all build the same graph.
type Services struct {
	Auth         *auth.Service
	Vendors      *vendors.Service
	Ledger       *ledger.Service
	Queries      *queries.Service
	ServiceLines *servicelines.Service
	Payments     *payments.Service
	Invoices     *invoices.Service
	Documents    *documents.Service
	Reminders    *reminders.Service
	Dashboard    *dashboard.Service
	Audit        *audit.Service
	Users        *users.Service

	DashboardCache *cache.Versioned
	Idempotency    *shared.IdempotencyStore
	PDF            *report.Client
	Store          storage.Store
}

// NewServices wires the service graph. Documents fall back to an in-process
// store when no bucket is configured.
func NewServices(ctx context.Context, cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (*Services, error) {
	loc := cfg.Location()
	auditLog := shared.NewAuditLogger(pool, logger)
	dashCache := cache.NewVersioned(redisClient, "dashboard", cfg.DashboardCacheTTL)
	pdf := report.NewClient(cfg.GotenbergURL)
	idem := shared.NewIdempotencyStore(pool)

	var store storage.Store
	if cfg.GCSBucket != "" {
		gcsStore, err := storage.NewGCS(ctx, storage.GCSConfig{Bucket: cfg.GCSBucket, CredentialsFile: cfg.GCSCredentialsFile})
		if err != nil {
			return nil, err
		}
		store = gcsStore
	} else {
		logger.Warn("GCS_BUCKET not set, documents are kept in memory")
		store = storage.NewMemory("memory://documents")
	}

	ledgerSvc := ledger.NewService(ledger.NewRepository(pool), loc, pdf, logger)
	vendorSvc := vendors.NewService(vendors.NewRepository(pool), ledgerSvc, auditLog, dashCache, logger)
	querySvc := queries.NewService(queries.NewRepository(pool), queries.ServiceConfig{
		Location:       loc,
		StrictWorkflow: cfg.QueryStrictWorkflow,
	}, auditLog, dashCache, logger)

	authSvc := auth.NewService(auth.NewRepository(pool), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), logger)

	return &Services{
		Auth:         authSvc,
		Vendors:      vendorSvc,
		Ledger:       ledgerSvc,
		Queries:      querySvc,
		ServiceLines: servicelines.NewService(servicelines.NewRepository(pool), querySvc, vendorSvc, ledgerSvc, auditLog, dashCache, logger),
		Payments:     payments.NewService(payments.NewRepository(pool), vendorSvc, ledgerSvc, idem, auditLog, dashCache, logger),
		Invoices:     invoices.NewService(invoices.NewRepository(pool), querySvc, loc, auditLog, dashCache, logger),
		Documents: documents.NewService(documents.NewRepository(pool), store, documents.Config{
			MaxBytes:     cfg.DocumentMaxBytes,
			SignedURLTTL: cfg.SignedURLTTL,
		}, auditLog, logger),
		Reminders: reminders.NewService(reminders.NewRepository(pool), auditLog, logger),
		Dashboard: dashboard.NewService(dashboard.NewRepository(pool), dashCache, logger),
		Audit:     audit.NewService(audit.NewRepository(pool)),
		Users:     users.NewService(users.NewRepository(pool), authSvc, auditLog, logger),

		DashboardCache: dashCache,
		Idempotency:    idem,
		PDF:            pdf,
		Store:          store,
	}, nil
}

// Close releases clients owned by the graph.
func (s *Services) Close() error {
	if closer, ok := s.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
