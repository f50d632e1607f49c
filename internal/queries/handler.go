package queries

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes query endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the query handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers query routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}/status", h.changeStatus)
	r.Get("/{id}/passengers", h.listPassengers)
	r.Post("/{id}/passengers", h.addPassenger)
	r.Delete("/{id}/passengers/{pid}", h.removePassenger)
}

type listResponse struct {
	Queries    []Query           `json:"queries"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	q := r.URL.Query()
	from, err := shared.ParseOptionalDate("from", q.Get("from"))
	if err != nil {
		httpx.RespondError(w, h.logger, "list queries", err)
		return
	}
	to, err := shared.ParseOptionalDate("to", q.Get("to"))
	if err != nil {
		httpx.RespondError(w, h.logger, "list queries", err)
		return
	}
	items, total, err := h.service.List(r.Context(), ListRequest{
		Status: Status(strings.ToUpper(q.Get("status"))),
		Search: strings.TrimSpace(q.Get("search")),
		From:   from,
		To:     to,
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, "list queries", err)
		return
	}
	if items == nil {
		items = []Query{}
	}
	httpx.OK(w, "queries loaded", listResponse{Queries: items, Pagination: shared.NewPagination(page.Page, page.Limit, total)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQueryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create query", err)
		return
	}
	q, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create query", err)
		return
	}
	httpx.Created(w, "query "+q.QueryNumber+" created", q)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "load query", err)
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "load query", err)
		return
	}
	httpx.OK(w, "query loaded", q)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "update query status", err)
		return
	}
	var req ChangeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update query status", err)
		return
	}
	q, err := h.service.ChangeStatus(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update query status", err)
		return
	}
	httpx.OK(w, "query status updated to "+string(q.Status), q)
}

func (h *Handler) listPassengers(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list passengers", err)
		return
	}
	items, err := h.service.ListPassengers(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "list passengers", err)
		return
	}
	if items == nil {
		items = []Passenger{}
	}
	httpx.OK(w, "passengers loaded", items)
}

func (h *Handler) addPassenger(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "add passenger", err)
		return
	}
	var req AddPassengerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "add passenger", err)
		return
	}
	p, err := h.service.AddPassenger(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "add passenger", err)
		return
	}
	httpx.Created(w, "passenger added", p)
}

func (h *Handler) removePassenger(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "remove passenger", err)
		return
	}
	pid, err := httpx.IDParam(r, "pid")
	if err != nil {
		httpx.RespondError(w, h.logger, "remove passenger", err)
		return
	}
	if err := h.service.RemovePassenger(r.Context(), id, pid); err != nil {
		httpx.RespondError(w, h.logger, "remove passenger", err)
		return
	}
	httpx.OK(w, "passenger removed", nil)
}
