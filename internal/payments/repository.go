package payments

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository persists payments. Payments are append-only.
type Repository interface {
	Insert(ctx context.Context, p Payment) (Payment, error)
	List(ctx context.Context, req ListRequest) ([]Payment, int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const paymentColumns = `p.id, p.vendor_id, v.name, p.amount, p.payment_method, COALESCE(p.transaction_reference, ''),
	p.payment_date, p.notes, COALESCE(p.created_by, 0), p.created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.VendorID, &p.VendorName, &p.Amount, &p.Method, &p.TransactionReference,
		&p.PaymentDate, &p.Notes, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (r *pgRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (vendor_id, amount, payment_method, transaction_reference, payment_date, notes, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, 0))
		RETURNING id, created_at`,
		p.VendorID, p.Amount, p.Method, p.TransactionReference, p.PaymentDate, p.Notes, p.CreatedBy).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if shared.IsForeignKeyViolation(err) {
			return Payment{}, shared.NewValidationError("vendor_id", "vendor does not exist")
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]Payment, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if req.VendorID != nil {
		args = append(args, *req.VendorID)
		where += ` AND p.vendor_id = $` + strconv.Itoa(len(args))
	}
	if req.From != nil {
		args = append(args, *req.From)
		where += ` AND p.payment_date >= $` + strconv.Itoa(len(args))
	}
	if req.To != nil {
		args = append(args, *req.To)
		where += ` AND p.payment_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments p JOIN vendors v ON v.id = p.vendor_id` + where +
		` ORDER BY p.payment_date DESC, p.id DESC`
	if req.Limit > 0 {
		args = append(args, req.Limit, (max(req.Page, 1)-1)*req.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
