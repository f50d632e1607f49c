package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/voyager-travel/voyager/internal/platform/db"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository reads and toggles staff accounts.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
}

// PGRepository implements Repository.
type PGRepository struct {
	db db.Querier
}

// NewRepository creates a user repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

const listColumns = `id, email, name, role, is_active, last_login_at, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.LastLoginAt, &u.CreatedAt)
	return u, err
}

// ListUsers returns all accounts ordered by email.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+listColumns+` FROM users ORDER BY lower(email)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetActive enables or disables login for an account.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+listColumns, id, active))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NotFound("user", id)
	}
	return u, err
}
