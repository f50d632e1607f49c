package reminders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository persists reminders and reads the other dated records shown on the calendar.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Reminder, error)
	Get(ctx context.Context, id int64) (Reminder, error)
	Create(ctx context.Context, r Reminder) (Reminder, error)
	MarkDone(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	// ClaimDue marks due, unnotified, open reminders as notified and returns them.
	ClaimDue(ctx context.Context, now time.Time) ([]Reminder, error)
	BookingEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const reminderColumns = `id, title, notes, due_at, query_id, done, notified_at, COALESCE(created_by, 0), created_at`

func scanReminder(row pgx.Row) (Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.Title, &r.Notes, &r.DueAt, &r.QueryID, &r.Done, &r.NotifiedAt, &r.CreatedBy, &r.CreatedAt)
	return r, err
}

func collect(rows pgx.Rows) ([]Reminder, error) {
	defer rows.Close()
	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *pgRepository) List(ctx context.Context, req ListRequest) ([]Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE 1=1`
	args := []interface{}{}
	if !req.IncludeDone {
		query += ` AND NOT done`
	}
	if req.From != nil {
		args = append(args, *req.From)
		query += ` AND due_at >= $` + strconv.Itoa(len(args))
	}
	if req.To != nil {
		args = append(args, *req.To)
		query += ` AND due_at < $` + strconv.Itoa(len(args))
	}
	rows, err := p.pool.Query(ctx, query+` ORDER BY due_at, id`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (p *pgRepository) Get(ctx context.Context, id int64) (Reminder, error) {
	r, err := scanReminder(p.pool.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reminder{}, shared.NotFound("reminder", id)
	}
	return r, err
}

func (p *pgRepository) Create(ctx context.Context, r Reminder) (Reminder, error) {
	created, err := scanReminder(p.pool.QueryRow(ctx, `
		INSERT INTO reminders (title, notes, due_at, query_id, created_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0))
		RETURNING `+reminderColumns, r.Title, r.Notes, r.DueAt, r.QueryID, r.CreatedBy))
	if err != nil && shared.IsForeignKeyViolation(err) {
		return Reminder{}, shared.NewValidationError("query_id", "query does not exist")
	}
	return created, err
}

func (p *pgRepository) MarkDone(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE reminders SET done = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("reminder", id)
	}
	return nil
}

func (p *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("reminder", id)
	}
	return nil
}

func (p *pgRepository) ClaimDue(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := p.pool.Query(ctx, `
		UPDATE reminders SET notified_at = $1
		WHERE NOT done AND notified_at IS NULL AND due_at <= $1
		RETURNING `+reminderColumns, now)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (p *pgRepository) BookingEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT travel_date, 'travel', client_name || ' departs' || COALESCE(' to ' || NULLIF(destination, ''), ''), id, query_number, id
		FROM queries WHERE travel_date >= $1 AND travel_date < $2 AND status <> 'CANCELLED'
		UNION ALL
		SELECT return_date, 'return', client_name || ' returns', id, query_number, id
		FROM queries WHERE return_date >= $1 AND return_date < $2 AND status <> 'CANCELLED'
		UNION ALL
		SELECT s.service_date, 'service', s.service_type || ': ' || s.description, q.id, q.query_number, s.id
		FROM query_services s JOIN queries q ON q.id = s.query_id
		WHERE s.service_date >= $1 AND s.service_date < $2 AND s.status <> 'Cancelled'`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var queryID int64
		if err := rows.Scan(&e.Date, &e.Kind, &e.Title, &queryID, &e.QueryNumber, &e.SourceID); err != nil {
			return nil, err
		}
		e.QueryID = &queryID
		out = append(out, e)
	}
	return out, rows.Err()
}
