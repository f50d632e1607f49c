package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/voyager-travel/voyager/internal/audit"
	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/dashboard"
	"github.com/voyager-travel/voyager/internal/documents"
	"github.com/voyager-travel/voyager/internal/invoices"
	"github.com/voyager-travel/voyager/internal/ledger"
	"github.com/voyager-travel/voyager/internal/observability"
	"github.com/voyager-travel/voyager/internal/payments"
	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/reminders"
	"github.com/voyager-travel/voyager/internal/servicelines"
	"github.com/voyager-travel/voyager/internal/users"
	"github.com/voyager-travel/voyager/internal/vendors"
	"github.com/voyager-travel/voyager/jobs"
	"github.com/voyager-travel/voyager/report"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Tokens  *auth.TokenIssuer
	Checks  map[string]HealthCheck

	AuthHandler        *auth.Handler
	QueriesHandler     *queries.Handler
	ServiceLineHandler *servicelines.Handler
	VendorsHandler     *vendors.Handler
	LedgerHandler      *ledger.Handler
	PaymentsHandler    *payments.Handler
	InvoicesHandler    *invoices.Handler
	DocumentsHandler   *documents.Handler
	RemindersHandler   *reminders.Handler
	DashboardHandler   *dashboard.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	AuditHandler       *audit.Handler
	UsersHandler       *users.Handler
}

// NewRouter constructs the chi.Router with Voyager defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/healthz", healthz(params.Checks, logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(params.Tokens, logger))

		if params.QueriesHandler != nil {
			r.Route("/queries", params.QueriesHandler.MountRoutes)
		}
		if params.ServiceLineHandler != nil {
			r.Route("/query_services", params.ServiceLineHandler.MountRoutes)
		}
		if params.VendorsHandler != nil {
			r.Route("/vendors", func(r chi.Router) {
				params.VendorsHandler.MountRoutes(r)
				if params.LedgerHandler != nil {
					params.LedgerHandler.MountRoutes(r)
				}
			})
		}
		if params.PaymentsHandler != nil {
			r.Route("/payments", params.PaymentsHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.DocumentsHandler != nil {
			r.Route("/documents", params.DocumentsHandler.MountRoutes)
		}
		if params.RemindersHandler != nil {
			r.Route("/reminders", params.RemindersHandler.MountRoutes)
			r.Get("/calendar", params.RemindersHandler.Calendar)
		}
		if params.DashboardHandler != nil {
			r.Get("/dashboard", params.DashboardHandler.Overview)
		}
		if params.ReportHandler != nil {
			r.Route("/report", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
	})

	return r
}

func healthz(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			httpx.JSON(w, http.StatusServiceUnavailable, httpx.Envelope{Success: false, Message: "degraded", Data: status})
			return
		}
		httpx.OK(w, "ok", status)
	}
}
