package audit

import (
	"context"
	"errors"
	"time"

	"github.com/voyager-travel/voyager/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportLimit     = 10000
)

// Service serves the audit timeline.
type Service struct {
	repo Repository
}

// NewService builds the audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page. It fetches one extra row to know whether a
// next page exists.
func (s *Service) Timeline(ctx context.Context, f TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, errors.New("audit: repository not configured")
	}
	if err := checkRange(f.From, f.To); err != nil {
		return Result{}, err
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	rows, err := s.repo.Window(ctx, f, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching row up to a hard cap.
func (s *Service) Export(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if err := checkRange(f.From, f.To); err != nil {
		return nil, err
	}
	return s.repo.Window(ctx, f, 0, exportLimit)
}

func checkRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return shared.NewValidationError("to", "must be after from")
	}
	return nil
}
