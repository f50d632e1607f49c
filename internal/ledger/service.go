package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// PDFRenderer converts an HTML document into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service builds vendor statements.
type Service struct {
	repo     Repository
	loc      *time.Location
	renderer PDFRenderer
	logger   *slog.Logger
	builds   singleflight.Group
}

// NewService wires the ledger service. loc is the agency timezone used to
// turn creation timestamps into statement dates.
func NewService(repo Repository, loc *time.Location, renderer PDFRenderer, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, loc: loc, renderer: renderer, logger: logger}
}

// BuildLedger returns the statement for vendorID. Concurrent requests for the
// same vendor share one build.
func (s *Service) BuildLedger(ctx context.Context, vendorID int64) (Ledger, error) {
	key := "ledger:" + strconv.FormatInt(vendorID, 10)
	ch := s.builds.DoChan(key, func() (interface{}, error) {
		return s.build(context.WithoutCancel(ctx), vendorID)
	})
	select {
	case <-ctx.Done():
		return Ledger{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Ledger{}, res.Err
		}
		return res.Val.(Ledger), nil
	}
}

func (s *Service) build(ctx context.Context, vendorID int64) (Ledger, error) {
	vendor, err := s.repo.GetVendor(ctx, vendorID)
	if err != nil {
		return Ledger{}, err
	}
	candidates, err := s.repo.ListPurchaseCandidates(ctx, vendor.ID, vendor.Name)
	if err != nil {
		return Ledger{}, err
	}
	resolver := NewResolver(s.repo)
	purchases := make([]Purchase, 0, len(candidates))
	for _, c := range candidates {
		id, ok, err := resolver.Resolve(ctx, c.Ref)
		if err != nil {
			return Ledger{}, err
		}
		if !ok || id != vendor.ID {
			continue
		}
		p := c.Purchase
		p.CreatedAt = p.CreatedAt.In(s.loc)
		purchases = append(purchases, p)
	}
	payments, err := s.repo.ListPayments(ctx, vendor.ID)
	if err != nil {
		return Ledger{}, err
	}
	for i := range payments {
		payments[i].CreatedAt = payments[i].CreatedAt.In(s.loc)
	}

	ledger := Build(purchases, payments)
	ledger.VendorID = vendor.ID
	ledger.VendorName = vendor.Name
	s.logger.Debug("ledger built", slog.Int64("vendor_id", vendor.ID), slog.Int("entries", ledger.Summary.TransactionCount))
	return ledger, nil
}

// RefreshTotals rebuilds the cached totals of one vendor.
func (s *Service) RefreshTotals(ctx context.Context, vendorID int64) error {
	return s.repo.RefreshTotals(ctx, vendorID)
}

// RefreshAllTotals rebuilds cached totals for every vendor.
func (s *Service) RefreshAllTotals(ctx context.Context) (int64, error) {
	return s.repo.RefreshAllTotals(ctx)
}

// ResolveVendorName finds the vendor a free-text vendor name counts towards,
// using the same rule the ledger applies to legacy lines.
func (s *Service) ResolveVendorName(ctx context.Context, name string) (int64, bool, error) {
	return NewResolver(s.repo).Resolve(ctx, VendorRef{Name: name})
}
