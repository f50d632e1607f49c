package payments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// IdempotencyHeader lets clients retry POST /payments safely.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
}

type listResponse struct {
	Payments   []Payment         `json:"payments"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vendorID, err := httpx.OptionalInt64Query(r, "vendor_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list payments", err)
		return
	}
	from, err := shared.ParseOptionalDate("from", r.URL.Query().Get("from"))
	if err != nil {
		httpx.RespondError(w, h.logger, "list payments", err)
		return
	}
	to, err := shared.ParseOptionalDate("to", r.URL.Query().Get("to"))
	if err != nil {
		httpx.RespondError(w, h.logger, "list payments", err)
		return
	}
	page := shared.ParsePageRequest(r)
	items, total, err := h.service.List(r.Context(), ListRequest{VendorID: vendorID, From: from, To: to, Page: page.Page, Limit: page.Limit})
	if err != nil {
		httpx.RespondError(w, h.logger, "list payments", err)
		return
	}
	if items == nil {
		items = []Payment{}
	}
	httpx.OK(w, "payments loaded", listResponse{Payments: items, Pagination: shared.NewPagination(page.Page, page.Limit, total)})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "record payment", err)
		return
	}
	p, err := h.service.Record(r.Context(), req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		httpx.RespondError(w, h.logger, "record payment", err)
		return
	}
	httpx.Created(w, "payment recorded", p)
}
