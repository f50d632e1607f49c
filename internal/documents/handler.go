package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voyager-travel/voyager/internal/platform/httpx"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Handler exposes document endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Get("/{id}/url", h.link)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	queryID, err := httpx.OptionalInt64Query(r, "query_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list documents", err)
		return
	}
	vendorID, err := httpx.OptionalInt64Query(r, "vendor_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "list documents", err)
		return
	}
	docs, err := h.service.List(r.Context(), ListRequest{QueryID: queryID, VendorID: vendorID})
	if err != nil {
		httpx.RespondError(w, h.logger, "list documents", err)
		return
	}
	if docs == nil {
		docs = []Document{}
	}
	httpx.OK(w, "documents loaded", docs)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.RespondError(w, h.logger, "upload document", shared.NewValidationError("file", "is too large"))
			return
		}
		httpx.RespondError(w, h.logger, "upload document", shared.NewValidationError("file", "multipart form expected"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	queryID, err := formID(r, "query_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "upload document", err)
		return
	}
	vendorID, err := formID(r, "vendor_id")
	if err != nil {
		httpx.RespondError(w, h.logger, "upload document", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, h.logger, "upload document", shared.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(r.Context(), UploadInput{
		QueryID:  queryID,
		VendorID: vendorID,
		FileName: header.Filename,
		Body:     file,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, "upload document", err)
		return
	}
	httpx.Created(w, "document uploaded", doc)
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "sign document url", err)
		return
	}
	link, err := h.service.Link(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "sign document url", err)
		return
	}
	httpx.OK(w, "document url generated", link)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, "delete document", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete document", err)
		return
	}
	httpx.OK(w, "document deleted", nil)
}

func formID(r *http.Request, name string) (*int64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, shared.NewValidationError(name, "must be a positive integer")
	}
	return &v, nil
}
