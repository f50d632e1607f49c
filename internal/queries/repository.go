package queries

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

// Repository defines query data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	// SyncSequence moves the day's counter past numbers already stored.
	SyncSequence(ctx context.Context, day time.Time) error

	Get(ctx context.Context, id int64) (Query, error)
	List(ctx context.Context, req ListRequest) ([]Query, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	LineSums(ctx context.Context, ids []int64) (map[int64]LineSums, error)

	ListPassengers(ctx context.Context, queryID int64) ([]Passenger, error)
	AddPassenger(ctx context.Context, p Passenger) (Passenger, error)
	DeletePassenger(ctx context.Context, queryID, passengerID int64) error
}

// TxRepository defines operations that must share the insert transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
	Insert(ctx context.Context, q Query) (Query, error)
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx, seq: shared.NewPGSequence(tx)})
	})
}

func (r *pgRepository) SyncSequence(ctx context.Context, day time.Time) error {
	_, err := shared.NewPGSequence(r.pool).Sync(ctx, shared.ScopeQuery, day, "queries", "query_number")
	return err
}

const queryColumns = `id, query_number, client_name, client_email, client_phone, destination, travel_date, return_date,
	adults, children, infants, source, status, notes, COALESCE(created_by, 0), created_at, updated_at`

func scanQuery(row pgx.Row) (Query, error) {
	var q Query
	err := row.Scan(&q.ID, &q.QueryNumber, &q.ClientName, &q.ClientEmail, &q.ClientPhone, &q.Destination, &q.TravelDate, &q.ReturnDate,
		&q.Adults, &q.Children, &q.Infants, &q.Source, &q.Status, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Query, error) {
	q, err := scanQuery(r.pool.QueryRow(ctx, `SELECT `+queryColumns+` FROM queries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Query{}, shared.NotFound("query", id)
	}
	return q, err
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]Query, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if req.Status != "" {
		args = append(args, req.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (query_number ILIKE $` + n + ` OR client_name ILIKE $` + n + ` OR client_phone ILIKE $` + n + ` OR destination ILIKE $` + n + `)`
	}
	if req.From != nil {
		args = append(args, *req.From)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if req.To != nil {
		args = append(args, req.To.AddDate(0, 0, 1))
		where += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM queries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + queryColumns + ` FROM queries` + where + ` ORDER BY created_at DESC, id DESC`
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
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

// UpdateStatus only succeeds while the row still carries from.
func (r *pgRepository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE queries SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("query %d status changed concurrently: %w", id, shared.ErrConflict)
	}
	return nil
}

func (r *pgRepository) LineSums(ctx context.Context, ids []int64) (map[int64]LineSums, error) {
	out := make(map[int64]LineSums, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT query_id, COALESCE(SUM(purchase_amount_base), 0), COALESCE(SUM(selling_amount_base), 0), COUNT(*)
		FROM query_services WHERE query_id = ANY($1) GROUP BY query_id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var sums LineSums
		if err := rows.Scan(&id, &sums.Purchase, &sums.Selling, &sums.Count); err != nil {
			return nil, err
		}
		out[id] = sums
	}
	return out, rows.Err()
}

func (r *pgRepository) ListPassengers(ctx context.Context, queryID int64) ([]Passenger, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, query_id, full_name, passenger_type, passport_number, passport_expiry, nationality, date_of_birth, created_at
		FROM passengers WHERE query_id = $1 ORDER BY id`, queryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Passenger
	for rows.Next() {
		var p Passenger
		if err := rows.Scan(&p.ID, &p.QueryID, &p.FullName, &p.PassengerType, &p.PassportNumber, &p.PassportExpiry, &p.Nationality, &p.DateOfBirth, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) AddPassenger(ctx context.Context, p Passenger) (Passenger, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO passengers (query_id, full_name, passenger_type, passport_number, passport_expiry, nationality, date_of_birth)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		p.QueryID, p.FullName, p.PassengerType, p.PassportNumber, p.PassportExpiry, p.Nationality, p.DateOfBirth).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Passenger{}, err
	}
	return p, nil
}

func (r *pgRepository) DeletePassenger(ctx context.Context, queryID, passengerID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM passengers WHERE id = $1 AND query_id = $2`, passengerID, queryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("passenger", passengerID)
	}
	return nil
}

type pgTxRepository struct {
	tx  pgx.Tx
	seq *shared.PGSequence
}

func (t *pgTxRepository) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	return t.seq.Next(ctx, scope, day)
}

func (t *pgTxRepository) Insert(ctx context.Context, q Query) (Query, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO queries (query_number, client_name, client_email, client_phone, destination, travel_date, return_date,
			adults, children, infants, source, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, 0))
		RETURNING `+queryColumns,
		q.QueryNumber, q.ClientName, q.ClientEmail, q.ClientPhone, q.Destination, q.TravelDate, q.ReturnDate,
		q.Adults, q.Children, q.Infants, q.Source, q.Status, q.Notes, q.CreatedBy)
	created, err := scanQuery(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Query{}, fmt.Errorf("query number %s already taken: %w", q.QueryNumber, shared.ErrConflict)
		}
		return Query{}, err
	}
	return created, nil
}
