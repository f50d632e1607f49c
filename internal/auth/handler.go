package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.With(Middleware(h.service.Tokens(), h.logger)).Get("/me", h.handleMe)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "login", err)
		return
	}
	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "login", err)
		return
	}
	httpx.OK(w, "login successful", result)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, h.logger, "load profile", err)
		return
	}
	httpx.OK(w, "profile loaded", user)
}
