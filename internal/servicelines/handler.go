package servicelines

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
)

// Handler exposes service line endpoints under /query_services.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers service line routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/preview", h.preview)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	queryID, err := httpx.OptionalInt64Query(r, "query_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list service lines", err)
		return
	}
	vendorID, err := httpx.OptionalInt64Query(r, "vendor_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list service lines", err)
		return
	}
	lines, err := h.service.List(r.Context(), ListRequest{QueryID: queryID, VendorID: vendorID})
	if err != nil {
		httpx.RespondError(w, h.logger, "list service lines", err)
		return
	}
	if lines == nil {
		lines = []ServiceLine{}
	}
	httpx.OK(w, "service lines loaded", lines)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "preview service line", err)
		return
	}
	p, err := h.service.Preview(req)
	if err != nil {
		httpx.RespondError(w, h.logger, "preview service line", err)
		return
	}
	httpx.OK(w, "preview computed", p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create service line", err)
		return
	}
	line, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create service line", err)
		return
	}
	httpx.Created(w, mutationMessage("service line created", line), line)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "update service line", err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update service line", err)
		return
	}
	line, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update service line", err)
		return
	}
	httpx.OK(w, mutationMessage("service line updated", line), line)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "delete service line", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete service line", err)
		return
	}
	httpx.OK(w, "service line deleted", nil)
}

func mutationMessage(base string, line ServiceLine) string {
	if line.LossWarning() {
		return base + "; " + LossMessage
	}
	return base
}
