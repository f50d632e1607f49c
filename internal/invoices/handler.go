package invoices

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.issue)
	r.Get("/{id}", h.show)
	r.Post("/{id}/send", h.action("send invoice", "invoice marked as sent", h.service.MarkSent))
	r.Post("/{id}/pay", h.action("mark invoice paid", "invoice marked as paid", h.service.MarkPaid))
	r.Post("/{id}/cancel", h.action("cancel invoice", "invoice cancelled", h.service.Cancel))
}

type listResponse struct {
	Invoices   []Invoice         `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	queryID, err := httpx.OptionalInt64Query(r, "query_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list invoices", err)
		return
	}
	page := shared.ParsePageRequest(r)
	items, total, err := h.service.List(r.Context(), ListRequest{
		Status:  Status(strings.ToUpper(r.URL.Query().Get("status"))),
		QueryID: queryID,
		Page:    page.Page,
		Limit:   page.Limit,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, "list invoices", err)
		return
	}
	if items == nil {
		items = []Invoice{}
	}
	httpx.OK(w, "invoices loaded", listResponse{Invoices: items, Pagination: shared.NewPagination(page.Page, page.Limit, total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "load invoice", err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "load invoice", err)
		return
	}
	httpx.OK(w, "invoice loaded", inv)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "issue invoice", err)
		return
	}
	inv, err := h.service.Issue(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "issue invoice", err)
		return
	}
	httpx.Created(w, "invoice "+inv.InvoiceNumber+" issued", inv)
}

func (h *Handler) action(failure, success string, fn func(context.Context, int64) (Invoice, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, h.logger, failure, err)
			return
		}
		inv, err := fn(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, h.logger, failure, err)
			return
		}
		httpx.OK(w, success, inv)
	}
}
