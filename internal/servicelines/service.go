package servicelines

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/voyager-travel/voyager/internal/money"
	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/shared"
	"github.com/voyager-travel/voyager/internal/vendors"
)

// LossMessage is shown when a line sells below cost.
const LossMessage = "selling price is below purchase price; this will record a loss"

// QueryStatuses reports the workflow status of a query.
type QueryStatuses interface {
	Status(ctx context.Context, id int64) (queries.Status, error)
}

// VendorDirectory checks vendors referenced by new activity.
type VendorDirectory interface {
	RequireActive(ctx context.Context, id int64) (vendors.Vendor, error)
}

// TotalsRefresher rebuilds a vendor's cached totals. Lines without a vendor
// id still count towards the vendor their name resolves to.
type TotalsRefresher interface {
	RefreshTotals(ctx context.Context, vendorID int64) error
	ResolveVendorName(ctx context.Context, name string) (int64, bool, error)
}

// Service implements service line use cases.
type Service struct {
	repo    Repository
	queries QueryStatuses
	vendors VendorDirectory
	totals  TotalsRefresher
	audit   shared.Auditor
	cache   shared.CacheInvalidator
	logger  *slog.Logger
}

// NewService constructs the service line service.
func NewService(repo Repository, queries QueryStatuses, vendors VendorDirectory, totals TotalsRefresher, audit shared.Auditor, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, queries: queries, vendors: vendors, totals: totals, audit: audit, cache: cache, logger: logger}
}

// List returns lines for a query or a vendor.
func (s *Service) List(ctx context.Context, req ListRequest) ([]ServiceLine, error) {
	if req.QueryID == nil && req.VendorID == nil {
		return nil, shared.NewValidationError("query_id", "is required")
	}
	return s.repo.List(ctx, req)
}

// Get loads one line.
func (s *Service) Get(ctx context.Context, id int64) (ServiceLine, error) {
	return s.repo.Get(ctx, id)
}

// Preview computes profit figures without persisting anything.
func (s *Service) Preview(req PreviewRequest) (Preview, error) {
	verr := &shared.ValidationError{}
	purchase := buildMoney(verr, "purchase", req.Purchase)
	selling := buildMoney(verr, "selling", req.Selling)
	if err := verr.OrNil(); err != nil {
		return Preview{}, err
	}
	line := ServiceLine{Purchase: purchase, Selling: selling}
	p := Preview{
		Purchase:     purchase,
		Selling:      selling,
		Profit:       line.Profit(),
		ProfitMargin: line.ProfitMargin(),
		LossWarning:  line.LossWarning(),
	}
	if p.LossWarning {
		p.Message = LossMessage
	}
	return p, nil
}

// Create adds a line to a query that is still open for edits.
func (s *Service) Create(ctx context.Context, req CreateRequest) (ServiceLine, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.VendorName = strings.TrimSpace(req.VendorName)
	if err := shared.ValidateStruct(req); err != nil {
		return ServiceLine{}, err
	}
	verr := &shared.ValidationError{}
	purchase := buildMoney(verr, "purchase", req.Purchase)
	selling := buildMoney(verr, "selling", req.Selling)
	serviceDate, err := shared.ParseOptionalDate("service_date", req.ServiceDate)
	if err != nil {
		return ServiceLine{}, err
	}
	if err := verr.OrNil(); err != nil {
		return ServiceLine{}, err
	}
	if err := s.requireOpenQuery(ctx, req.QueryID); err != nil {
		return ServiceLine{}, err
	}

	line := ServiceLine{
		QueryID:          req.QueryID,
		VendorName:       req.VendorName,
		ServiceType:      ServiceType(req.ServiceType),
		Description:      req.Description,
		City:             strings.TrimSpace(req.City),
		ServiceDate:      serviceDate,
		Purchase:         purchase,
		Selling:          selling,
		BookingReference: strings.TrimSpace(req.BookingReference),
		Status:           LineStatus(req.Status),
		Notes:            req.Notes,
		CreatedBy:        shared.ActorID(ctx),
	}
	if line.Status == "" {
		line.Status = LineDraft
	}
	if req.VendorID != nil {
		if err := s.attachVendor(ctx, &line, *req.VendorID); err != nil {
			return ServiceLine{}, err
		}
	}

	created, err := s.repo.Create(ctx, line)
	if err != nil {
		return ServiceLine{}, err
	}
	s.record(ctx, "service_line.create", created.ID, map[string]any{"query_id": created.QueryID, "loss": created.LossWarning()})
	s.afterMutation(ctx, created)
	return created, nil
}

// Update replaces fields of a line. Profit follows from the new amounts.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (ServiceLine, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return ServiceLine{}, err
	}
	line, err := s.repo.Get(ctx, id)
	if err != nil {
		return ServiceLine{}, err
	}
	if err := s.requireOpenQuery(ctx, line.QueryID); err != nil {
		return ServiceLine{}, err
	}
	previous := line

	verr := &shared.ValidationError{}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc == "" {
			verr.Add("description", "is required")
		}
		line.Description = desc
	}
	if req.ServiceType != nil {
		line.ServiceType = ServiceType(*req.ServiceType)
	}
	if req.City != nil {
		line.City = strings.TrimSpace(*req.City)
	}
	if req.ServiceDate != nil {
		d, err := shared.ParseOptionalDate("service_date", *req.ServiceDate)
		if err != nil {
			return ServiceLine{}, err
		}
		line.ServiceDate = d
	}
	if req.Purchase != nil {
		line.Purchase = buildMoney(verr, "purchase", *req.Purchase)
	}
	if req.Selling != nil {
		line.Selling = buildMoney(verr, "selling", *req.Selling)
	}
	if req.BookingReference != nil {
		line.BookingReference = strings.TrimSpace(*req.BookingReference)
	}
	if req.Status != nil {
		line.Status = LineStatus(*req.Status)
	}
	if req.Notes != nil {
		line.Notes = *req.Notes
	}
	switch {
	case req.DetachVendor && req.VendorID != nil:
		verr.Add("vendor_id", "cannot be combined with detach_vendor")
	case req.DetachVendor:
		line.VendorID = nil
		line.VendorName = ""
		if req.VendorName != nil {
			line.VendorName = strings.TrimSpace(*req.VendorName)
		}
	case req.VendorName != nil && req.VendorID == nil:
		if line.VendorID != nil {
			verr.Add("vendor_name", "line is linked to a vendor; send vendor_id to reassign or detach_vendor to unlink")
		} else {
			line.VendorName = strings.TrimSpace(*req.VendorName)
		}
	}
	if err := verr.OrNil(); err != nil {
		return ServiceLine{}, err
	}
	if req.VendorID != nil && (line.VendorID == nil || *line.VendorID != *req.VendorID) {
		if err := s.attachVendor(ctx, &line, *req.VendorID); err != nil {
			return ServiceLine{}, err
		}
	}

	updated, err := s.repo.Update(ctx, line)
	if err != nil {
		return ServiceLine{}, err
	}
	s.record(ctx, "service_line.update", id, map[string]any{"query_id": updated.QueryID, "loss": updated.LossWarning()})
	s.afterMutation(ctx, previous, updated)
	return updated, nil
}

// Delete removes a line. Query totals are derived, so nothing else changes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	line, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOpenQuery(ctx, line.QueryID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "service_line.delete", id, map[string]any{"query_id": line.QueryID, "description": line.Description})
	s.afterMutation(ctx, line)
	return nil
}

func (s *Service) requireOpenQuery(ctx context.Context, queryID int64) error {
	status, err := s.queries.Status(ctx, queryID)
	if err != nil {
		return err
	}
	if status.Locked() {
		return &shared.InvalidTransitionError{Entity: "query", From: string(status), To: "edited"}
	}
	return nil
}

func (s *Service) attachVendor(ctx context.Context, line *ServiceLine, vendorID int64) error {
	v, err := s.vendors.RequireActive(ctx, vendorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("vendor_id", "vendor does not exist")
		}
		return err
	}
	id := v.ID
	line.VendorID = &id
	line.VendorName = v.Name
	return nil
}

// afterMutation rebuilds the cached totals of every vendor the given line
// states count towards, by id or by resolved legacy name.
func (s *Service) afterMutation(ctx context.Context, lines ...ServiceLine) {
	if s.totals != nil {
		seen := make(map[int64]bool, len(lines))
		for _, line := range lines {
			id, ok := s.vendorOf(ctx, line)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			if err := s.totals.RefreshTotals(ctx, id); err != nil {
				s.logger.Warn("refresh vendor totals", slog.Int64("vendor_id", id), slog.Any("error", err))
			}
		}
	}
	shared.Invalidate(ctx, s.cache, s.logger)
}

func (s *Service) vendorOf(ctx context.Context, line ServiceLine) (int64, bool) {
	if line.VendorID != nil {
		return *line.VendorID, true
	}
	if strings.TrimSpace(line.VendorName) == "" {
		return 0, false
	}
	id, ok, err := s.totals.ResolveVendorName(ctx, line.VendorName)
	if err != nil {
		s.logger.Warn("resolve vendor name", slog.String("vendor_name", line.VendorName), slog.Any("error", err))
		return 0, false
	}
	return id, ok
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "service_line", EntityID: shared.EntityID(id), Meta: meta})
}

// buildMoney converts an input amount, collecting problems into verr.
func buildMoney(verr *shared.ValidationError, field string, in MoneyInput) money.Money {
	code, err := money.ParseCurrency(in.Currency)
	if err != nil {
		verr.Add(field+".currency", "must be one of PKR, SAR, USD, AED, EUR, GBP")
		return money.Money{}
	}
	if in.Amount.IsNegative() {
		verr.Add(field+".amount", "must not be negative")
		return money.Money{}
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		verr.Add(field+".amount", "must have at most 2 decimal places")
		return money.Money{}
	}
	rate := decimal.NewFromInt(1)
	if !code.IsBase() {
		if in.ExchangeRate == nil {
			verr.Add(field+".exchange_rate", "is required for "+string(code))
			return money.Money{}
		}
		rate = *in.ExchangeRate
	}
	m, err := money.New(in.Amount, code, rate)
	if err != nil {
		var rateErr *money.InvalidRateError
		if errors.As(err, &rateErr) {
			verr.Add(field+".exchange_rate", rateErr.Reason)
		} else {
			verr.Add(field, err.Error())
		}
		return money.Money{}
	}
	return m
}
