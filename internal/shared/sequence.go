package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/voyager-travel/voyager/internal/platform/db"
)

// Document number scopes backed by document_sequences.
const (
	ScopeQuery   = "QRY"
	ScopeInvoice = "INV"
)

// SequenceAllocator hands out day-scoped, gap-free sequence numbers.
type SequenceAllocator interface {
	Next(ctx context.Context, scope string, day time.Time) (int, error)
}

// PGSequence allocates with a single upsert on the caller's connection, so the
// counter row stays locked until the surrounding transaction ends.
type PGSequence struct {
	db db.Querier
}

// NewPGSequence binds the allocator to q, typically a pgx.Tx.
func NewPGSequence(q db.Querier) *PGSequence {
	return &PGSequence{db: q}
}

// Next increments and returns the counter for scope on day.
func (s *PGSequence) Next(ctx context.Context, scope string, day time.Time) (int, error) {
	var seq int
	err := s.db.QueryRow(ctx, `
		INSERT INTO document_sequences (scope, day, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (scope, day) DO UPDATE SET last_seq = document_sequences.last_seq + 1
		RETURNING last_seq`, scope, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("allocate %s sequence: %w", scope, err)
	}
	return seq, nil
}

// Sync raises the counter for scope on day to the highest suffix already
// stored in table.column, so the next allocation skips numbers taken outside
// the counter. It runs on its own connection because a failed insert rolls
// back the allocation made in the same transaction.
func (s *PGSequence) Sync(ctx context.Context, scope string, day time.Time, table, column string) (int, error) {
	suffix := fmt.Sprintf("split_part(%s, '-', 3)", column)
	sql := fmt.Sprintf(`
		INSERT INTO document_sequences (scope, day, last_seq)
		SELECT $1, $2::date, COALESCE(MAX(CASE WHEN %[1]s ~ '^[0-9]+$' THEN %[1]s::int END), 0)
		FROM %[2]s
		WHERE %[3]s LIKE $3
		ON CONFLICT (scope, day) DO UPDATE
		SET last_seq = GREATEST(document_sequences.last_seq, EXCLUDED.last_seq)
		RETURNING last_seq`, suffix, table, column)
	prefix := fmt.Sprintf("%s-%s-%%", scope, day.Format("20060102"))

	var seq int
	if err := s.db.QueryRow(ctx, sql, scope, day.Format("2006-01-02"), prefix).Scan(&seq); err != nil {
		return 0, fmt.Errorf("sync %s sequence: %w", scope, err)
	}
	return seq, nil
}

// FormatDocumentNumber renders PREFIX-YYYYMMDD-NNN.
func FormatDocumentNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}
