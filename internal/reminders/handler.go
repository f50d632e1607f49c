package reminders

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes reminder and calendar endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /reminders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/done", h.complete)
	r.Delete("/{id}", h.delete)
}

// Calendar serves GET /calendar?from=&to=. Dates are inclusive calendar days.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := shared.ParseOptionalDate("from", q.Get("from"))
	if err != nil {
		httpx.RespondError(w, h.logger, "load calendar", err)
		return
	}
	to, err := shared.ParseOptionalDate("to", q.Get("to"))
	if err != nil {
		httpx.RespondError(w, h.logger, "load calendar", err)
		return
	}
	if from == nil {
		start := shared.StartOfDay(time.Now(), time.UTC).AddDate(0, 0, -7)
		from = &start
	}
	if to == nil {
		end := from.AddDate(0, 0, 30)
		to = &end
	}
	events, err := h.service.Calendar(r.Context(), *from, to.AddDate(0, 0, 1))
	if err != nil {
		httpx.RespondError(w, h.logger, "load calendar", err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httpx.OK(w, "calendar loaded", events)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), ListRequest{IncludeDone: r.URL.Query().Get("include_done") == "true"})
	if err != nil {
		httpx.RespondError(w, h.logger, "list reminders", err)
		return
	}
	if items == nil {
		items = []Reminder{}
	}
	httpx.OK(w, "reminders loaded", items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create reminder", err)
		return
	}
	rem, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create reminder", err)
		return
	}
	httpx.Created(w, "reminder created", rem)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "complete reminder", err)
		return
	}
	rem, err := h.service.Complete(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "complete reminder", err)
		return
	}
	httpx.OK(w, "reminder completed", rem)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "delete reminder", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete reminder", err)
		return
	}
	httpx.OK(w, "reminder deleted", nil)
}
