// Package media provides the Postgres-backed store for attachment metadata
// rows; it satisfies the media service's Repository interface.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	mediasvc "studiosite/internal/media"
)

const attachmentCols = `id::text, owner_type, owner_id, collection, file_name, storage_path, mime_type,
       size_bytes, sort_order, featured, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns an attachment store backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) mediasvc.Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Insert(ctx context.Context, a domain.MediaAttachment) (*domain.MediaAttachment, error) {
	q := fmt.Sprintf(`
INSERT INTO media_attachments (id, owner_type, owner_id, collection, file_name, storage_path, mime_type,
                               size_bytes, sort_order, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING %s`, attachmentCols)
	out, err := scanAttachment(r.pool.QueryRow(ctx, q,
		a.ID, a.OwnerType, a.OwnerID, a.Collection, a.FileName, a.StoragePath, a.MimeType,
		a.SizeBytes, a.SortOrder, a.Featured,
	))
	if err != nil {
		r.logger.Printf("media repo: insert owner=%s/%d error=%v", a.OwnerType, a.OwnerID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerType string, ownerID int64, collection string) ([]domain.MediaAttachment, error) {
	q := fmt.Sprintf(`
SELECT %s FROM media_attachments
WHERE owner_type = $1 AND owner_id = $2 AND ($3 = '' OR collection = $3)
ORDER BY collection, sort_order, created_at`, attachmentCols)
	rows, err := r.pool.Query(ctx, q, ownerType, ownerID, collection)
	if err != nil {
		r.logger.Printf("media repo: list owner=%s/%d error=%v", ownerType, ownerID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.MediaAttachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.MediaAttachment, error) {
	q := fmt.Sprintf("SELECT %s FROM media_attachments WHERE id = $1 LIMIT 1", attachmentCols)
	a, err := scanAttachment(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("media repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM media_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteByOwner(ctx context.Context, ownerType string, ownerID int64, collections ...string) ([]domain.MediaAttachment, error) {
	q := fmt.Sprintf(`
DELETE FROM media_attachments
WHERE owner_type = $1 AND owner_id = $2 AND (cardinality($3::text[]) = 0 OR collection = ANY($3))
RETURNING %s`, attachmentCols)
	if collections == nil {
		collections = []string{}
	}
	rows, err := r.pool.Query(ctx, q, ownerType, ownerID, collections)
	if err != nil {
		r.logger.Printf("media repo: delete by owner=%s/%d error=%v", ownerType, ownerID, err)
		return nil, err
	}
	defer rows.Close()

	var deleted []domain.MediaAttachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, *a)
	}
	return deleted, rows.Err()
}

func (r *postgresRepo) MaxSortOrder(ctx context.Context, ownerType string, ownerID int64, collection string) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(max(sort_order), 0) FROM media_attachments
WHERE owner_type = $1 AND owner_id = $2 AND collection = $3`, ownerType, ownerID, collection).Scan(&max)
	return max, err
}

func scanAttachment(row pgx.Row) (*domain.MediaAttachment, error) {
	var a domain.MediaAttachment
	err := row.Scan(
		&a.ID, &a.OwnerType, &a.OwnerID, &a.Collection, &a.FileName, &a.StoragePath, &a.MimeType,
		&a.SizeBytes, &a.SortOrder, &a.Featured, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
