package vendors

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository persists vendors.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Vendor, int, error)
	Get(ctx context.Context, id int64) (Vendor, error)
	Create(ctx context.Context, v Vendor) (Vendor, error)
	Update(ctx context.Context, v Vendor) error
	SetDeleted(ctx context.Context, id int64, deleted bool) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const vendorColumns = `id, name, type, contact_person, phone, email, address, bank_name, account_title, account_number, iban,
	credit_days, notes, total_business, total_paid, total_pending, total_profit, totals_refreshed_at,
	is_deleted, deleted_at, COALESCE(created_by, 0), created_at, updated_at`

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.Type, &v.ContactPerson, &v.Phone, &v.Email, &v.Address, &v.BankName, &v.AccountTitle,
		&v.AccountNumber, &v.IBAN, &v.CreditDays, &v.Notes, &v.TotalBusiness, &v.TotalPaid, &v.TotalPending, &v.TotalProfit,
		&v.TotalsRefreshedAt, &v.IsDeleted, &v.DeletedAt, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Vendor, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	switch req.Filter {
	case FilterDeleted:
		where += ` AND is_deleted`
	case FilterAll:
	default:
		where += ` AND NOT is_deleted`
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR contact_person ILIKE $` + n + `)`
	}
	if req.Type != "" {
		args = append(args, req.Type)
		where += ` AND type = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vendors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + vendorColumns + ` FROM vendors` + where + ` ORDER BY name ASC`
	if req.Limit > 0 {
		args = append(args, req.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (req.Page - 1) * req.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Vendor, error) {
	v, err := scanVendor(r.db.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, shared.NotFound("vendor", id)
	}
	return v, err
}

func (r *repository) Create(ctx context.Context, v Vendor) (Vendor, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO vendors (name, type, contact_person, phone, email, address, bank_name, account_title, account_number, iban, credit_days, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, 0))
		RETURNING `+vendorColumns,
		v.Name, v.Type, v.ContactPerson, v.Phone, v.Email, v.Address, v.BankName, v.AccountTitle, v.AccountNumber, v.IBAN, v.CreditDays, v.Notes, v.CreatedBy)
	created, err := scanVendor(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Vendor{}, errDuplicateName(v.Name)
		}
		return Vendor{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendors SET name = $1, type = $2, contact_person = $3, phone = $4, email = $5, address = $6, bank_name = $7,
			account_title = $8, account_number = $9, iban = $10, credit_days = $11, notes = $12, updated_at = $13
		WHERE id = $14`,
		v.Name, v.Type, v.ContactPerson, v.Phone, v.Email, v.Address, v.BankName, v.AccountTitle, v.AccountNumber, v.IBAN,
		v.CreditDays, v.Notes, time.Now(), v.ID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return errDuplicateName(v.Name)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("vendor", v.ID)
	}
	return nil
}

// SetDeleted flips only the deletion flag; lines and payments stay untouched.
func (r *repository) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendors SET is_deleted = $1, deleted_at = CASE WHEN $1 THEN NOW() ELSE NULL END, updated_at = NOW()
		WHERE id = $2`, deleted, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("vendor", id)
	}
	return nil
}
