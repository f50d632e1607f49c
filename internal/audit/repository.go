package audit

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/voyager-travel/voyager/internal/platform/db"
)

// Repository reads audit_logs.
type Repository interface {
	Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error)
}

// PGRepository implements Repository.
type PGRepository struct {
	db db.Querier
}

// NewRepository builds the Postgres repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

const timelineSQL = `
SELECT a.id, a.occurred_at, a.actor_id, COALESCE(u.email, 'system'), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id
WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
  AND ($3::text IS NULL OR u.email ILIKE '%' || $3 || '%')
  AND ($4::text IS NULL OR a.entity = $4)
  AND ($5::text IS NULL OR a.entity_id = $5)
  AND ($6::text IS NULL OR a.action ILIKE $6 || '%')
ORDER BY a.occurred_at DESC, a.id DESC
OFFSET $7 LIMIT $8`

// Window returns up to limit rows starting at offset, newest first.
func (r *PGRepository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, timelineSQL,
		toPgTime(f.From), toPgTime(f.To),
		optionalText(f.Actor), optionalText(f.Entity), optionalText(f.EntityID), optionalText(f.Action),
		offset, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var (
			out  TimelineRow
			meta []byte
		)
		if err := row.Scan(&out.ID, &out.At, &out.ActorID, &out.Actor, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if len(meta) > 0 && string(meta) != "null" {
			out.Meta = meta
		}
		return out, nil
	})
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
