package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/voyager-travel/voyager/internal/shared"
	"github.com/voyager-travel/voyager/internal/vendors"
)

const idempotencyModule = "payments"

// VendorDirectory checks vendors referenced by new payments.
type VendorDirectory interface {
	RequireActive(ctx context.Context, id int64) (vendors.Vendor, error)
}

// TotalsRefresher rebuilds a vendor's cached totals.
type TotalsRefresher interface {
	RefreshTotals(ctx context.Context, vendorID int64) error
}

// IdempotencyGuard reserves client supplied request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service records vendor payments.
type Service struct {
	repo    Repository
	vendors VendorDirectory
	totals  TotalsRefresher
	keys    IdempotencyGuard
	audit   shared.Auditor
	cache   shared.CacheInvalidator
	logger  *slog.Logger
}

// NewService constructs the payment service. keys may be nil.
func NewService(repo Repository, vendors VendorDirectory, totals TotalsRefresher, keys IdempotencyGuard, audit shared.Auditor, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, vendors: vendors, totals: totals, keys: keys, audit: audit, cache: cache, logger: logger}
}

// Record stores a payment and rebuilds the vendor's totals. A non-empty
// idempotencyKey makes retries of the same submission fail with a conflict
// instead of paying twice.
func (s *Service) Record(ctx context.Context, req RecordRequest, idempotencyKey string) (Payment, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Payment{}, err
	}
	verr := &shared.ValidationError{}
	method, ok := ParseMethod(req.Method)
	if !ok {
		verr.Add("payment_method", "must be one of Cash, Bank Transfer, Cheque, Online/UPI, Other")
	}
	if !req.Amount.IsPositive() {
		verr.Add("amount", "must be greater than 0")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
	paymentDate, err := shared.ParseOptionalDate("payment_date", req.PaymentDate)
	if err != nil {
		return Payment{}, err
	}
	if err := verr.OrNil(); err != nil {
		return Payment{}, err
	}

	v, err := s.vendors.RequireActive(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Payment{}, shared.NewValidationError("vendor_id", "vendor does not exist")
		}
		return Payment{}, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" && s.keys != nil {
		if err := s.keys.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Payment{}, err
		}
	}

	p, err := s.repo.Insert(ctx, Payment{
		VendorID:             v.ID,
		VendorName:           v.Name,
		Amount:               req.Amount.Round(2),
		Method:               method,
		TransactionReference: strings.TrimSpace(req.TransactionReference),
		PaymentDate:          *paymentDate,
		Notes:                req.Notes,
		CreatedBy:            shared.ActorID(ctx),
	})
	if err != nil {
		if idempotencyKey != "" && s.keys != nil {
			if delErr := s.keys.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", delErr))
			}
		}
		return Payment{}, err
	}
	p.VendorName = v.Name

	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   "payment.create",
		Entity:   "payment",
		EntityID: shared.EntityID(p.ID),
		Meta:     map[string]any{"vendor_id": p.VendorID, "amount": p.Amount.StringFixed(2), "method": p.Method},
	})
	if s.totals != nil {
		if err := s.totals.RefreshTotals(ctx, p.VendorID); err != nil {
			s.logger.Warn("refresh vendor totals", slog.Int64("vendor_id", p.VendorID), slog.Any("error", err))
		}
	}
	shared.Invalidate(ctx, s.cache, s.logger)
	return p, nil
}

// List returns payments, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, req)
}
