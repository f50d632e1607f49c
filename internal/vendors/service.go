package vendors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voyager-travel/voyager/internal/shared"
)

func errDuplicateName(name string) error {
	return fmt.Errorf("vendor %q already exists: %w", name, shared.ErrConflict)
}

// TotalsRefresher rebuilds a vendor's cached totals.
type TotalsRefresher interface {
	RefreshTotals(ctx context.Context, vendorID int64) error
}

// Service implements vendor use cases.
type Service struct {
	repo   Repository
	totals TotalsRefresher
	audit  shared.Auditor
	cache  shared.CacheInvalidator
	logger *slog.Logger
}

// NewService constructs the vendor service.
func NewService(repo Repository, totals TotalsRefresher, audit shared.Auditor, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, totals: totals, audit: audit, cache: cache, logger: logger}
}

// List returns vendors matching req.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Vendor, int, error) {
	if req.Filter == "" {
		req.Filter = FilterActive
	}
	return s.repo.List(ctx, req)
}

// Get loads a vendor, deleted or not.
func (s *Service) Get(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new vendor.
func (s *Service) Create(ctx context.Context, req CreateVendorRequest) (Vendor, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(req); err != nil {
		return Vendor{}, err
	}
	v := Vendor{
		Name:          req.Name,
		Type:          strings.TrimSpace(req.Type),
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		BankName:      req.BankName,
		AccountTitle:  req.AccountTitle,
		AccountNumber: req.AccountNumber,
		IBAN:          req.IBAN,
		CreditDays:    req.CreditDays,
		Notes:         req.Notes,
		CreatedBy:     shared.ActorID(ctx),
	}
	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return Vendor{}, err
	}
	s.record(ctx, "vendor.create", created.ID, map[string]any{"name": created.Name})
	// Legacy lines typed with this name start counting towards the new vendor.
	s.refreshTotals(ctx, created.ID)
	shared.Invalidate(ctx, s.cache, s.logger)
	return s.reload(ctx, created)
}

// Update edits vendor details. Deleted vendors must be restored first.
func (s *Service) Update(ctx context.Context, id int64, req UpdateVendorRequest) (Vendor, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := shared.ValidateStruct(req); err != nil {
		return Vendor{}, err
	}
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	if v.IsDeleted {
		return Vendor{}, shared.NewValidationError("id", "vendor is deleted; restore it before editing")
	}
	renamed := req.Name != nil && !strings.EqualFold(strings.Trim(*req.Name, " "), strings.Trim(v.Name, " "))
	req.apply(&v)
	if err := s.repo.Update(ctx, v); err != nil {
		return Vendor{}, err
	}
	s.record(ctx, "vendor.update", id, nil)
	if renamed {
		s.refreshTotals(ctx, id)
	}
	shared.Invalidate(ctx, s.cache, s.logger)
	return s.repo.Get(ctx, id)
}

// SoftDelete hides the vendor from active listings. History is kept.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.IsDeleted {
		return &shared.InvalidTransitionError{Entity: "vendor", From: "deleted", To: "deleted"}
	}
	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return err
	}
	s.record(ctx, "vendor.delete", id, map[string]any{"name": v.Name})
	shared.Invalidate(ctx, s.cache, s.logger)
	return nil
}

// Restore reverses SoftDelete.
func (s *Service) Restore(ctx context.Context, id int64) (Vendor, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	if !v.IsDeleted {
		return Vendor{}, &shared.InvalidTransitionError{Entity: "vendor", From: "active", To: "active"}
	}
	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return Vendor{}, err
	}
	s.record(ctx, "vendor.restore", id, nil)
	shared.Invalidate(ctx, s.cache, s.logger)
	return s.repo.Get(ctx, id)
}

// RequireActive loads a vendor and rejects deleted ones for new activity.
func (s *Service) RequireActive(ctx context.Context, id int64) (Vendor, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	if v.IsDeleted {
		return Vendor{}, shared.NewValidationError("vendor_id", "vendor is deleted")
	}
	return v, nil
}

func (s *Service) refreshTotals(ctx context.Context, id int64) {
	if s.totals == nil {
		return
	}
	if err := s.totals.RefreshTotals(ctx, id); err != nil {
		s.logger.Warn("refresh vendor totals", slog.Int64("vendor_id", id), slog.Any("error", err))
	}
}

// reload returns the stored row so refreshed totals are visible; it falls
// back to v when the read fails.
func (s *Service) reload(ctx context.Context, v Vendor) (Vendor, error) {
	fresh, err := s.repo.Get(ctx, v.ID)
	if err != nil {
		s.logger.Warn("reload vendor", slog.Int64("vendor_id", v.ID), slog.Any("error", err))
		return v, nil
	}
	return fresh, nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "vendor", EntityID: shared.EntityID(id), Meta: meta})
}
