package invoices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/platform/db"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository defines invoice persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	SyncSequence(ctx context.Context, day time.Time) error
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, paidAt *time.Time) error
}

// TxRepository holds operations sharing the numbering transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx, seq: shared.NewPGSequence(tx)})
	})
}

func (r *pgRepository) SyncSequence(ctx context.Context, day time.Time) error {
	_, err := shared.NewPGSequence(r.pool).Sync(ctx, shared.ScopeInvoice, day, "invoices", "invoice_number")
	return err
}

const invoiceSelect = `SELECT i.id, i.invoice_number, i.query_id, q.query_number, q.client_name, i.amount, i.status,
	i.issued_at, i.due_at, i.paid_at, i.notes, COALESCE(i.created_by, 0), i.created_at
	FROM invoices i JOIN queries q ON q.id = i.query_id`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.QueryID, &inv.QueryNumber, &inv.ClientName, &inv.Amount, &inv.Status,
		&inv.IssuedAt, &inv.DueAt, &inv.PaidAt, &inv.Notes, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.NotFound("invoice", id)
	}
	return inv, err
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if req.Status != "" {
		args = append(args, req.Status)
		where += ` AND i.status = $` + strconv.Itoa(len(args))
	}
	if req.QueryID != nil {
		args = append(args, *req.QueryID)
		where += ` AND i.query_id = $` + strconv.Itoa(len(args))
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := invoiceSelect + where + ` ORDER BY i.issued_at DESC, i.id DESC`
	if req.Limit > 0 {
		args = append(args, req.Limit, (max(req.Page, 1)-1)*req.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id int64, from, to Status, paidAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status = $1, paid_at = COALESCE($2, paid_at), updated_at = NOW()
		WHERE id = $3 AND status = $4`, to, paidAt, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d status changed concurrently: %w", id, shared.ErrConflict)
	}
	return nil
}

type pgTx struct {
	tx  pgx.Tx
	seq *shared.PGSequence
}

func (t *pgTx) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	return t.seq.Next(ctx, scope, day)
}

func (t *pgTx) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, query_id, amount, status, issued_at, due_at, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0))
		RETURNING id, created_at`,
		inv.InvoiceNumber, inv.QueryID, inv.Amount, inv.Status, inv.IssuedAt, inv.DueAt, inv.Notes, inv.CreatedBy).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Invoice{}, fmt.Errorf("invoice number %s already taken: %w", inv.InvoiceNumber, shared.ErrConflict)
		}
		return Invoice{}, err
	}
	return inv, nil
}
