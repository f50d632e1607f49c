package documents

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Repository persists document metadata.
type Repository interface {
	Insert(ctx context.Context, d Document) (Document, error)
	Get(ctx context.Context, id int64) (Document, error)
	List(ctx context.Context, req ListRequest) ([]Document, error)
	Delete(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const documentColumns = `id, query_id, vendor_id, file_name, object_path, url, content_type, size_bytes, COALESCE(uploaded_by, 0), created_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.QueryID, &d.VendorID, &d.FileName, &d.ObjectPath, &d.URL, &d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt)
	return d, err
}

func (r *pgRepository) Insert(ctx context.Context, d Document) (Document, error) {
	created, err := scanDocument(r.pool.QueryRow(ctx, `
		INSERT INTO documents (query_id, vendor_id, file_name, object_path, url, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0))
		RETURNING `+documentColumns,
		d.QueryID, d.VendorID, d.FileName, d.ObjectPath, d.URL, d.ContentType, d.SizeBytes, d.UploadedBy))
	if err != nil {
		if shared.IsForeignKeyViolation(err) {
			return Document{}, shared.NewValidationError("query_id", "query or vendor does not exist")
		}
		return Document{}, err
	}
	return created, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, shared.NotFound("document", id)
	}
	return d, err
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []interface{}{}
	if req.QueryID != nil {
		args = append(args, *req.QueryID)
		query += ` AND query_id = $` + strconv.Itoa(len(args))
	}
	if req.VendorID != nil {
		args = append(args, *req.VendorID)
		query += ` AND vendor_id = $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("document", id)
	}
	return nil
}
