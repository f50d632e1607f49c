package dashboard

import (
	"context"
	"fmt"

	"github.com/voyager-travel/voyager/internal/platform/db"
)

// Repository reads the rollups behind the dashboard.
type Repository interface {
	QueryStatusCounts(ctx context.Context) ([]StatusCount, error)
	LineTotals(ctx context.Context) (LineTotals, error)
	InvoiceBuckets(ctx context.Context) ([]InvoiceBucket, error)
	VendorSummary(ctx context.Context, top int) (VendorSummary, error)
}

type pgRepository struct {
	db db.Querier
}

// NewRepository wires a pg backed repository.
func NewRepository(q db.Querier) Repository {
	return &pgRepository{db: q}
}

func (r *pgRepository) QueryStatusCounts(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM queries GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgRepository) LineTotals(ctx context.Context) (LineTotals, error) {
	var t LineTotals
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(purchase_amount_base), 0), COALESCE(SUM(selling_amount_base), 0)
		FROM query_services`).Scan(&t.Lines, &t.Purchase, &t.Selling)
	if err != nil {
		return LineTotals{}, fmt.Errorf("line totals: %w", err)
	}
	t.Profit = t.Selling.Sub(t.Purchase)
	return t, nil
}

func (r *pgRepository) InvoiceBuckets(ctx context.Context) ([]InvoiceBucket, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0) FROM invoices GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("invoice buckets: %w", err)
	}
	defer rows.Close()
	var out []InvoiceBucket
	for rows.Next() {
		var b InvoiceBucket
		if err := rows.Scan(&b.Status, &b.Count, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgRepository) VendorSummary(ctx context.Context, top int) (VendorSummary, error) {
	var s VendorSummary
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_pending), 0) FROM vendors WHERE NOT is_deleted`).Scan(&s.Active, &s.TotalPending); err != nil {
		return VendorSummary{}, fmt.Errorf("vendor summary: %w", err)
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, total_pending FROM vendors
		WHERE NOT is_deleted AND total_pending > 0
		ORDER BY total_pending DESC, name ASC
		LIMIT $1`, top)
	if err != nil {
		return VendorSummary{}, fmt.Errorf("top pending vendors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v PendingVendor
		if err := rows.Scan(&v.ID, &v.Name, &v.TotalPending); err != nil {
			return VendorSummary{}, err
		}
		s.TopPending = append(s.TopPending, v)
	}
	return s, rows.Err()
}
