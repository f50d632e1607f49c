package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
)

// Handler serves the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Overview handles GET /dashboard.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, "load dashboard", err)
		return
	}
	httpx.OK(w, "dashboard loaded", out)
}
