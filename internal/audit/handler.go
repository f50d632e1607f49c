package audit

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes the audit timeline to admins.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler builds the handler. guard wraps every route, typically with an
// admin role check.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.guard != nil {
		r.Use(h.guard)
	}
	r.Get("/", h.timeline)
	r.Get("/export.csv", h.export)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "audit timeline", err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, h.logger, "audit timeline", err)
		return
	}
	httpx.OK(w, "audit timeline loaded", result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "audit export", err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, h.logger, "audit export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-log.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"At", "Actor", "Action", "Entity", "Entity ID", "Meta"})
	for _, row := range rows {
		_ = writer.Write([]string{row.At.UTC().Format(time.RFC3339), row.Actor, row.Action, row.Entity, row.EntityID, string(row.Meta)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("audit export write", slog.Any("error", err))
	}
}

// parseFilters reads from/to as dates; to is inclusive of the whole day.
func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	f := TimelineFilters{
		Actor:    q.Get("actor"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Action:   q.Get("action"),
	}
	from, err := shared.ParseOptionalDate("from", q.Get("from"))
	if err != nil {
		return f, err
	}
	to, err := shared.ParseOptionalDate("to", q.Get("to"))
	if err != nil {
		return f, err
	}
	if from != nil {
		f.From = *from
	}
	if to != nil {
		f.To = to.AddDate(0, 0, 1)
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return f, nil
}
