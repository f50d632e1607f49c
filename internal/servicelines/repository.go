package servicelines

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository persists service lines.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]ServiceLine, error)
	Get(ctx context.Context, id int64) (ServiceLine, error)
	Create(ctx context.Context, line ServiceLine) (ServiceLine, error)
	Update(ctx context.Context, line ServiceLine) (ServiceLine, error)
	Delete(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const lineColumns = `id, query_id, vendor_id, COALESCE(vendor_name, ''), service_type, description, COALESCE(city, ''), service_date,
	purchase_amount, purchase_currency, purchase_exchange_rate, purchase_amount_base,
	selling_amount, selling_currency, selling_exchange_rate, selling_amount_base,
	COALESCE(booking_reference, ''), status, notes, COALESCE(created_by, 0), created_at, updated_at`

func scanLine(row pgx.Row) (ServiceLine, error) {
	var l ServiceLine
	err := row.Scan(&l.ID, &l.QueryID, &l.VendorID, &l.VendorName, &l.ServiceType, &l.Description, &l.City, &l.ServiceDate,
		&l.Purchase.AmountOriginal, &l.Purchase.Currency, &l.Purchase.RateToBase, &l.Purchase.AmountBase,
		&l.Selling.AmountOriginal, &l.Selling.Currency, &l.Selling.RateToBase, &l.Selling.AmountBase,
		&l.BookingReference, &l.Status, &l.Notes, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]ServiceLine, error) {
	query := `SELECT ` + lineColumns + ` FROM query_services WHERE 1=1`
	args := []interface{}{}
	if req.QueryID != nil {
		args = append(args, *req.QueryID)
		query += ` AND query_id = $` + strconv.Itoa(len(args))
	}
	if req.VendorID != nil {
		args = append(args, *req.VendorID)
		query += ` AND vendor_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY service_date NULLS LAST, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (ServiceLine, error) {
	l, err := scanLine(r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM query_services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceLine{}, shared.NotFound("service line", id)
	}
	return l, err
}

func (r *pgRepository) Create(ctx context.Context, l ServiceLine) (ServiceLine, error) {
	created, err := scanLine(r.pool.QueryRow(ctx, `
		INSERT INTO query_services (query_id, vendor_id, vendor_name, service_type, description, city, service_date,
			purchase_amount, purchase_currency, purchase_exchange_rate, purchase_amount_base,
			selling_amount, selling_currency, selling_exchange_rate, selling_amount_base,
			booking_reference, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NULLIF($19, 0))
		RETURNING `+lineColumns,
		l.QueryID, l.VendorID, l.VendorName, l.ServiceType, l.Description, l.City, l.ServiceDate,
		l.Purchase.AmountOriginal, l.Purchase.Currency, l.Purchase.RateToBase, l.Purchase.AmountBase,
		l.Selling.AmountOriginal, l.Selling.Currency, l.Selling.RateToBase, l.Selling.AmountBase,
		l.BookingReference, l.Status, l.Notes, l.CreatedBy))
	if err != nil {
		if shared.IsForeignKeyViolation(err) {
			return ServiceLine{}, shared.NewValidationError("query_id", "query or vendor does not exist")
		}
		return ServiceLine{}, err
	}
	return created, nil
}

func (r *pgRepository) Update(ctx context.Context, l ServiceLine) (ServiceLine, error) {
	updated, err := scanLine(r.pool.QueryRow(ctx, `
		UPDATE query_services SET
			vendor_id = $2, vendor_name = $3, service_type = $4, description = $5, city = $6, service_date = $7,
			purchase_amount = $8, purchase_currency = $9, purchase_exchange_rate = $10, purchase_amount_base = $11,
			selling_amount = $12, selling_currency = $13, selling_exchange_rate = $14, selling_amount_base = $15,
			booking_reference = $16, status = $17, notes = $18, updated_at = NOW()
		WHERE id = $1
		RETURNING `+lineColumns,
		l.ID, l.VendorID, l.VendorName, l.ServiceType, l.Description, l.City, l.ServiceDate,
		l.Purchase.AmountOriginal, l.Purchase.Currency, l.Purchase.RateToBase, l.Purchase.AmountBase,
		l.Selling.AmountOriginal, l.Selling.Currency, l.Selling.RateToBase, l.Selling.AmountBase,
		l.BookingReference, l.Status, l.Notes))
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceLine{}, shared.NotFound("service line", l.ID)
	}
	if err != nil && shared.IsForeignKeyViolation(err) {
		return ServiceLine{}, shared.NewValidationError("vendor_id", "vendor does not exist")
	}
	return updated, err
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM query_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("service line", id)
	}
	return nil
}
