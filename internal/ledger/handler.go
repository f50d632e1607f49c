package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
)

// Handler serves vendor statements.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a ledger handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers statement routes under /vendors.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/ledger", h.show)
	r.Get("/{id}/ledger.csv", h.csv)
	r.Get("/{id}/ledger.xlsx", h.xlsx)
	r.Get("/{id}/ledger.pdf", h.pdf)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "load vendor ledger", err)
		return
	}
	l, err := h.service.BuildLedger(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "load vendor ledger", err)
		return
	}
	httpx.OK(w, "vendor ledger loaded", l)
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	l, err := h.service.BuildLedger(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, l); err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vendor-%d-ledger.csv", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) xlsx(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	l, err := h.service.BuildLedger(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	buf := &bytes.Buffer{}
	if err := WriteXLSX(buf, l); err != nil {
		httpx.RespondError(w, h.logger, "export vendor ledger", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vendor-%d-ledger.xlsx", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "render vendor statement", err)
		return
	}
	pdf, _, err := h.service.ExportPDF(r.Context(), id)
	if errors.Is(err, ErrPDFUnavailable) {
		httpx.Fail(w, http.StatusServiceUnavailable, "pdf rendering is not configured", nil)
		return
	}
	if err != nil {
		httpx.RespondError(w, h.logger, "render vendor statement", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=vendor-%d-statement.pdf", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
