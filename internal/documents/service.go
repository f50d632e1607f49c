package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/voyager-travel/voyager/internal/platform/storage"
	"github.com/voyager-travel/voyager/internal/shared"
)

// DefaultMaxBytes caps uploads when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

var allowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Config tunes uploads.
type Config struct {
	MaxBytes     int64
	SignedURLTTL time.Duration
}

// Service stores attachments in object storage and their metadata in Postgres.
type Service struct {
	repo   Repository
	store  storage.Store
	cfg    Config
	audit  shared.Auditor
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the document service.
func NewService(repo Repository, store storage.Store, cfg Config, audit shared.Auditor, logger *slog.Logger) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 15 * time.Minute
	}
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, cfg: cfg, audit: audit, logger: logger, now: time.Now}
}

// MaxBytes is the configured upload limit.
func (s *Service) MaxBytes() int64 {
	return s.cfg.MaxBytes
}

// Upload sniffs, stores and records a file.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	verr := &shared.ValidationError{}
	if in.QueryID == nil && in.VendorID == nil {
		verr.Add("query_id", "query_id or vendor_id is required")
	}
	name := SanitizeFileName(in.FileName)
	if name == "" {
		verr.Add("file", "file name is required")
	}
	if in.Body == nil {
		verr.Add("file", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return Document{}, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.cfg.MaxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return Document{}, shared.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.cfg.MaxBytes))
	}
	if len(data) == 0 {
		return Document{}, shared.NewValidationError("file", "is empty")
	}
	mime := mimetype.Detect(data)
	if !allowed(mime) {
		return Document{}, shared.NewValidationError("file", "content type "+mime.String()+" is not accepted")
	}

	objectPath := ObjectPath(in.QueryID, in.VendorID, uuid.NewString(), name)
	url, err := s.store.Upload(ctx, objectPath, bytes.NewReader(data), mime.String())
	if err != nil {
		return Document{}, err
	}

	doc, err := s.repo.Insert(ctx, Document{
		QueryID:     in.QueryID,
		VendorID:    in.VendorID,
		FileName:    name,
		ObjectPath:  objectPath,
		URL:         url,
		ContentType: mime.String(),
		SizeBytes:   int64(len(data)),
		UploadedBy:  shared.ActorID(ctx),
	})
	if err != nil {
		if _, delErr := s.store.Delete(ctx, objectPath); delErr != nil {
			s.logger.Warn("remove orphaned object", slog.String("path", objectPath), slog.Any("error", delErr))
		}
		return Document{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "document.upload", Entity: "document", EntityID: shared.EntityID(doc.ID),
		Meta: map[string]any{"file_name": doc.FileName, "size": doc.SizeBytes}})
	return doc, nil
}

// List returns documents for a query or vendor.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Document, error) {
	if req.QueryID == nil && req.VendorID == nil {
		return nil, shared.NewValidationError("query_id", "query_id or vendor_id is required")
	}
	return s.repo.List(ctx, req)
}

// Link returns a temporary download URL.
func (s *Service) Link(ctx context.Context, id int64) (SignedLink, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return SignedLink{}, err
	}
	url, err := s.store.SignedURL(ctx, doc.ObjectPath, s.cfg.SignedURLTTL)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return SignedLink{}, shared.NotFound("document object", id)
		}
		return SignedLink{}, err
	}
	return SignedLink{URL: url, ExpiresAt: s.now().Add(s.cfg.SignedURLTTL)}, nil
}

// Delete removes the object and then its metadata. A missing object still
// lets the metadata go.
func (s *Service) Delete(ctx context.Context, id int64) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.store.Delete(ctx, doc.ObjectPath)
	if err != nil {
		return err
	}
	if !removed {
		s.logger.Warn("document object already gone", slog.Int64("document_id", id), slog.String("path", doc.ObjectPath))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "document.delete", Entity: "document", EntityID: shared.EntityID(id),
		Meta: map[string]any{"file_name": doc.FileName}})
	return nil
}

// ObjectPath builds the storage key of an upload.
func ObjectPath(queryID, vendorID *int64, id, name string) string {
	switch {
	case queryID != nil:
		return fmt.Sprintf("queries/%d/%s-%s", *queryID, id, name)
	default:
		return fmt.Sprintf("vendors/%d/%s-%s", *vendorID, id, name)
	}
}

// SanitizeFileName strips directories and characters unsafe in object keys.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeName.ReplaceAllString(name, "_")
	if len(name) > 120 {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	return name
}

func allowed(m *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}
