package invoices

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/shared"
)

const maxNumberRetries = 2

// QueryTotals exposes the derived totals of a query.
type QueryTotals interface {
	Totals(ctx context.Context, id int64) (queries.Totals, error)
}

// Service implements invoice use cases.
type Service struct {
	repo    Repository
	queries QueryTotals
	loc     *time.Location
	audit   shared.Auditor
	cache   shared.CacheInvalidator
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the invoice service. Invoice numbers use loc for the day.
func NewService(repo Repository, queries QueryTotals, loc *time.Location, audit shared.Auditor, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, queries: queries, loc: loc, audit: audit, cache: cache, logger: logger, now: time.Now}
}

// Issue bills the query's current selling total.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (Invoice, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Invoice{}, err
	}
	totals, err := s.queries.Totals(ctx, req.QueryID)
	if err != nil {
		return Invoice{}, err
	}
	if totals.LineCount == 0 || !totals.TotalSelling.IsPositive() {
		return Invoice{}, shared.NewValidationError("query_id", "query has no billable service lines")
	}

	now := s.now()
	inv := Invoice{
		QueryID:   req.QueryID,
		Amount:    totals.TotalSelling,
		Status:    StatusDraft,
		IssuedAt:  now,
		DueAt:     now.AddDate(0, 0, req.DueDays),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: shared.ActorID(ctx),
	}

	day := shared.StartOfDay(inv.IssuedAt, s.loc)
	var created Invoice
	for attempt := 0; ; attempt++ {
		created, err = s.insert(ctx, inv, day)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConflict) || attempt >= maxNumberRetries {
			return Invoice{}, err
		}
		s.logger.Warn("invoice number collision, retrying", slog.Int("attempt", attempt+1), slog.Any("error", err))
		// The failed insert rolled back its allocation; resync before retrying.
		if serr := s.repo.SyncSequence(ctx, day); serr != nil {
			s.logger.Warn("invoice sequence sync failed", slog.Any("error", serr))
		}
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "invoice.issue", Entity: "invoice", EntityID: shared.EntityID(created.ID),
		Meta: map[string]any{"invoice_number": created.InvoiceNumber, "amount": created.Amount.StringFixed(2)}})
	shared.Invalidate(ctx, s.cache, s.logger)
	return created, nil
}

func (s *Service) insert(ctx context.Context, inv Invoice, day time.Time) (Invoice, error) {
	var created Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, shared.ScopeInvoice, day)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = shared.FormatDocumentNumber(shared.ScopeInvoice, day, seq)
		created, err = tx.Insert(ctx, inv)
		return err
	})
	return created, err
}

// Get loads an invoice.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching req.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}

// MarkSent records that the invoice went to the client.
func (s *Service) MarkSent(ctx context.Context, id int64) (Invoice, error) {
	return s.move(ctx, id, StatusSent)
}

// MarkPaid records client settlement.
func (s *Service) MarkPaid(ctx context.Context, id int64) (Invoice, error) {
	return s.move(ctx, id, StatusPaid)
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, id int64) (Invoice, error) {
	return s.move(ctx, id, StatusCancelled)
}

func (s *Service) move(ctx context.Context, id int64, to Status) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if !CanMove(inv.Status, to) {
		return Invoice{}, &shared.InvalidTransitionError{Entity: "invoice", From: string(inv.Status), To: string(to)}
	}
	var paidAt *time.Time
	if to == StatusPaid {
		now := s.now()
		paidAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, inv.Status, to, paidAt); err != nil {
		return Invoice{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "invoice.status", Entity: "invoice", EntityID: shared.EntityID(id),
		Meta: map[string]any{"from": inv.Status, "to": to}})
	shared.Invalidate(ctx, s.cache, s.logger)
	return s.repo.Get(ctx, id)
}
