package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voyager-travel/voyager/internal/platform/cache"
)

const topPendingVendors = 5

// Service assembles the dashboard overview.
type Service struct {
	repo   Repository
	cache  *cache.Versioned
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the service. A nil cache always reads through.
func NewService(repo Repository, c *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger, now: time.Now}
}

// Overview returns the cached overview, computing it on a miss.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	key, err := s.cache.Key(ctx, "overview")
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return s.compute(ctx)
	}
	var out Overview
	if err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.compute(ctx)
	}); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// Warm recomputes the overview into the current cache version.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Overview(ctx)
	return err
}

func (s *Service) compute(ctx context.Context) (Overview, error) {
	out := Overview{GeneratedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Queries, err = s.repo.QueryStatusCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Totals, err = s.repo.LineTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Invoices, err = s.repo.InvoiceBuckets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Vendors, err = s.repo.VendorSummary(gctx, topPendingVendors)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	if out.Queries == nil {
		out.Queries = []StatusCount{}
	}
	if out.Invoices == nil {
		out.Invoices = []InvoiceBucket{}
	}
	if out.Vendors.TopPending == nil {
		out.Vendors.TopPending = []PendingVendor{}
	}
	return out, nil
}
