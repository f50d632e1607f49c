package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/platform/httpx"
)

// Handler wires user management routes.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   func(http.Handler) http.Handler
}

// NewHandler creates a users handler. guard wraps every route.
func NewHandler(logger *slog.Logger, service *Service, guard func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.guard != nil {
		r.Use(h.guard)
	}
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Post("/{id}/activate", h.setActive(true))
	r.Post("/{id}/deactivate", h.setActive(false))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, "list users", err)
		return
	}
	httpx.OK(w, "users loaded", list)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req auth.CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create user", err)
		return
	}
	u, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create user", err)
		return
	}
	httpx.Created(w, "user saved", u)
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, h.logger, "update user", err)
			return
		}
		u, err := h.service.SetActive(r.Context(), id, active)
		if err != nil {
			httpx.RespondError(w, h.logger, "update user", err)
			return
		}
		httpx.OK(w, "user updated", u)
	}
}
