package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// VendorInfo is the vendor header of a statement.
type VendorInfo struct {
	ID        int64
	Name      string
	IsDeleted bool
}

// Candidate is a purchase together with the raw vendor reference stored on its line.
type Candidate struct {
	Purchase
	Ref VendorRef
}

// Repository loads ledger sources and rewrites the cached vendor totals.
type Repository interface {
	VendorIndex
	GetVendor(ctx context.Context, id int64) (VendorInfo, error)
	ListPurchaseCandidates(ctx context.Context, vendorID int64, vendorName string) ([]Candidate, error)
	ListPayments(ctx context.Context, vendorID int64) ([]Payment, error)
	RefreshTotals(ctx context.Context, vendorID int64) error
	RefreshAllTotals(ctx context.Context) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetVendor(ctx context.Context, id int64) (VendorInfo, error) {
	var v VendorInfo
	err := r.db.QueryRow(ctx, `SELECT id, name, is_deleted FROM vendors WHERE id = $1`, id).Scan(&v.ID, &v.Name, &v.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return VendorInfo{}, shared.NotFound("vendor", id)
	}
	return v, err
}

func (r *repository) FindVendorIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM vendors WHERE lower(btrim(name)) = $1 ORDER BY id LIMIT 1`, NormaliseName(name)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *repository) ListPurchaseCandidates(ctx context.Context, vendorID int64, vendorName string) ([]Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.query_id, q.query_number, s.service_type, s.description, s.service_date, s.created_at,
		       s.purchase_amount_base, s.selling_amount_base, COALESCE(s.booking_reference, ''), s.vendor_id, COALESCE(s.vendor_name, '')
		FROM query_services s
		JOIN queries q ON q.id = s.query_id
		WHERE s.vendor_id = $1 OR (s.vendor_id IS NULL AND lower(btrim(s.vendor_name)) = $2)
		ORDER BY s.created_at, s.id`, vendorID, NormaliseName(vendorName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.LineID, &c.QueryID, &c.QueryNumber, &c.ServiceType, &c.Description, &c.ServiceDate, &c.CreatedAt,
			&c.AmountBase, &c.SellingBase, &c.Reference, &c.Ref.ID, &c.Ref.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListPayments(ctx context.Context, vendorID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, amount, payment_method, payment_date, created_at, COALESCE(transaction_reference, ''), notes
		FROM payments WHERE vendor_id = $1 ORDER BY created_at, id`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Amount, &p.Method, &p.PaymentDate, &p.CreatedAt, &p.Reference, &p.Notes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Totals are overwritten from full aggregates, never adjusted by a delta.
const refreshTotalsSQL = `
	UPDATE vendors v SET
		total_business = (SELECT COALESCE(SUM(s.purchase_amount_base), 0) FROM query_services s WHERE ` + lineBelongsToVendor + `),
		total_profit   = (SELECT COALESCE(SUM(s.selling_amount_base - s.purchase_amount_base), 0) FROM query_services s WHERE ` + lineBelongsToVendor + `),
		total_paid     = (SELECT COALESCE(SUM(p.amount), 0) FROM payments p WHERE p.vendor_id = v.id),
		total_pending  = (SELECT COALESCE(SUM(s.purchase_amount_base), 0) FROM query_services s WHERE ` + lineBelongsToVendor + `)
		               - (SELECT COALESCE(SUM(p.amount), 0) FROM payments p WHERE p.vendor_id = v.id),
		totals_refreshed_at = NOW()`

// RefreshTotals locks the vendor row first so the UPDATE runs on a snapshot
// that includes every mutation committed before the lock was granted.
func (r *repository) RefreshTotals(ctx context.Context, vendorID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("refresh vendor totals: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM vendors WHERE id = $1 FOR UPDATE`, vendorID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.NotFound("vendor", vendorID)
		}
		return fmt.Errorf("refresh vendor totals: lock: %w", err)
	}
	if _, err := tx.Exec(ctx, refreshTotalsSQL+` WHERE v.id = $1`, vendorID); err != nil {
		return fmt.Errorf("refresh vendor totals: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *repository) RefreshAllTotals(ctx context.Context) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh all vendor totals: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT id FROM vendors ORDER BY id FOR UPDATE`); err != nil {
		return 0, fmt.Errorf("refresh all vendor totals: lock: %w", err)
	}
	tag, err := tx.Exec(ctx, refreshTotalsSQL)
	if err != nil {
		return 0, fmt.Errorf("refresh all vendor totals: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
