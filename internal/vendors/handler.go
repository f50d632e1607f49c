package vendors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes vendor endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	adminGuard func(http.Handler) http.Handler
}

// NewHandler builds the handler. adminGuard protects delete and restore.
func NewHandler(logger *slog.Logger, service *Service, adminGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, adminGuard: adminGuard}
}

// MountRoutes registers vendor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Group(func(r chi.Router) {
		if h.adminGuard != nil {
			r.Use(h.adminGuard)
		}
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/restore", h.restore)
	})
}

type listResponse struct {
	Vendors    []Vendor          `json:"vendors"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	q := r.URL.Query()
	vendors, total, err := h.service.List(r.Context(), ListRequest{
		Filter: ParseFilter(q.Get("filter")),
		Search: q.Get("search"),
		Type:   q.Get("type"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, "list vendors", err)
		return
	}
	if vendors == nil {
		vendors = []Vendor{}
	}
	httpx.OK(w, "vendors loaded", listResponse{Vendors: vendors, Pagination: shared.NewPagination(page.Page, page.Limit, total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "load vendor", err)
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "load vendor", err)
		return
	}
	httpx.OK(w, "vendor loaded", v)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create vendor", err)
		return
	}
	v, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create vendor", err)
		return
	}
	httpx.Created(w, "vendor created", v)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "update vendor", err)
		return
	}
	var req UpdateVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update vendor", err)
		return
	}
	v, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update vendor", err)
		return
	}
	httpx.OK(w, "vendor updated", v)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "delete vendor", err)
		return
	}
	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete vendor", err)
		return
	}
	httpx.OK(w, "vendor moved to deleted; it can be restored", nil)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "restore vendor", err)
		return
	}
	v, err := h.service.Restore(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "restore vendor", err)
		return
	}
	httpx.OK(w, "vendor restored", v)
}
