package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

var sortFields = map[string]string{
	"title":          "title",
	"brand":          "brand",
	"category":       "category",
	"download_count": "download_count",
	"file_size":      "file_size",
	"sort_order":     "sort_order",
	"created_at":     "created_at",
	"updated_at":     "updated_at",
}

const defaultOrder = "sort_order ASC, created_at DESC"

const downloadCols = `id, uuid::text, title, description, brand, category, file_type, file_size, download_count,
       is_featured, is_public, sort_order, meta_title, meta_description, tags, deleted_at, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func buildFilters(p query.Params) *query.Builder {
	b := &query.Builder{}
	b.Where("deleted_at IS NULL")
	if search, ok := p.Filter("search"); ok && search != "" {
		needle := "%" + search + "%"
		b.Where("(title ILIKE ? OR description ILIKE ? OR brand ILIKE ?)", needle, needle, needle)
	}
	if brand, ok := p.Filter("brand"); ok && brand != "" {
		b.Where("brand = ?", brand)
	}
	if cat, ok := p.Filter("category"); ok && cat != "" {
		b.Where("category = ?", cat)
	}
	if ft, ok := p.Filter("file_type"); ok && ft != "" {
		b.Where("file_type = ?", ft)
	}
	if featured := p.BoolFilter("featured"); featured != nil {
		b.Where("is_featured = ?", *featured)
	}
	if public := p.BoolFilter("public"); public != nil {
		b.Where("is_public = ?", *public)
	}
	return b
}

func (r *postgresRepo) List(ctx context.Context, p query.Params) ([]domain.Download, query.Meta, error) {
	b := buildFilters(p)
	where, args := b.Clause()

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM downloads "+where, args...).Scan(&total); err != nil {
		r.logger.Printf("download repo: count error=%v", err)
		return nil, query.Meta{}, err
	}

	q := fmt.Sprintf("SELECT %s FROM downloads %s ORDER BY %s LIMIT $%d OFFSET $%d",
		downloadCols, where, p.OrderBy(sortFields, defaultOrder), b.NextArg(), b.NextArg()+1)
	rows, err := r.pool.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		r.logger.Printf("download repo: list error=%v", err)
		return nil, query.Meta{}, err
	}
	defer rows.Close()

	result, err := collect(rows)
	if err != nil {
		r.logger.Printf("download repo: list rows error=%v", err)
		return nil, query.Meta{}, err
	}
	return result, query.NewMeta(total, p.Page, p.PerPage), nil
}

// ListAll returns every row matching the filters, unpaged. Used by export.
func (r *postgresRepo) ListAll(ctx context.Context, p query.Params) ([]domain.Download, error) {
	b := buildFilters(p)
	where, args := b.Clause()
	q := fmt.Sprintf("SELECT %s FROM downloads %s ORDER BY %s",
		downloadCols, where, p.OrderBy(sortFields, defaultOrder))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("download repo: list all error=%v", err)
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *postgresRepo) GetByUUID(ctx context.Context, uuid string) (*domain.Download, error) {
	q := fmt.Sprintf("SELECT %s FROM downloads WHERE uuid = $1 AND deleted_at IS NULL LIMIT 1", downloadCols)
	d, err := scanDownload(r.pool.QueryRow(ctx, q, uuid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("download repo: get uuid=%s error=%v", uuid, err)
		return nil, err
	}
	return d, nil
}

func (r *postgresRepo) Create(ctx context.Context, d domain.Download) (*domain.Download, error) {
	q := fmt.Sprintf(`
INSERT INTO downloads (uuid, title, description, brand, category, file_type, file_size, is_featured, is_public,
                       sort_order, meta_title, meta_description, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING %s`, downloadCols)
	out, err := scanDownload(r.pool.QueryRow(ctx, q,
		d.UUID, d.Title, d.Description, d.Brand, d.Category, d.FileType, d.FileSize, d.IsFeatured, d.IsPublic,
		d.SortOrder, d.MetaTitle, d.MetaDescription, d.Tags,
	))
	if err != nil {
		r.logger.Printf("download repo: create title=%s error=%v", d.Title, err)
		return nil, err
	}
	r.logger.Printf("download repo: created uuid=%s", out.UUID)
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, d domain.Download) (*domain.Download, error) {
	q := fmt.Sprintf(`
UPDATE downloads
SET title = $2, description = $3, brand = $4, category = $5, is_featured = $6, is_public = $7, sort_order = $8,
    meta_title = $9, meta_description = $10, tags = $11, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING %s`, downloadCols)
	out, err := scanDownload(r.pool.QueryRow(ctx, q,
		d.ID, d.Title, d.Description, d.Brand, d.Category, d.IsFeatured, d.IsPublic, d.SortOrder,
		d.MetaTitle, d.MetaDescription, d.Tags,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("download repo: update id=%d error=%v", d.ID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE downloads SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Printf("download repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetSortOrder(ctx context.Context, uuid string, sortOrder int) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE downloads SET sort_order = $2, updated_at = now() WHERE uuid = $1 AND deleted_at IS NULL`,
		uuid, sortOrder)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetFileMeta(ctx context.Context, id int64, fileType string, fileSize int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE downloads SET file_type = $2, file_size = $3, updated_at = now() WHERE id = $1`,
		id, fileType, fileSize)
	return err
}

func (r *postgresRepo) MaxSortOrder(ctx context.Context) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(max(sort_order), 0) FROM downloads WHERE deleted_at IS NULL`).Scan(&max)
	return max, err
}

// IncrementDownloadCount bumps the counter in SQL so concurrent downloads
// never lose an update. Returns the new count.
func (r *postgresRepo) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
UPDATE downloads SET download_count = download_count + 1
WHERE id = $1 AND deleted_at IS NULL
RETURNING download_count`, id).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		r.logger.Printf("download repo: increment id=%d error=%v", id, err)
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) BulkUpdate(ctx context.Context, uuids []string, fields BulkFields) (int64, error) {
	sets := []string{"updated_at = now()"}
	args := []any{uuids}
	n := 2
	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, v)
		n++
	}
	if fields.IsFeatured != nil {
		add("is_featured", *fields.IsFeatured)
	}
	if fields.IsPublic != nil {
		add("is_public", *fields.IsPublic)
	}
	if fields.Brand != nil {
		add("brand", *fields.Brand)
	}
	if fields.Category != nil {
		add("category", *fields.Category)
	}

	q := fmt.Sprintf(`UPDATE downloads SET %s WHERE uuid = ANY($1) AND deleted_at IS NULL`, strings.Join(sets, ", "))
	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		r.logger.Printf("download repo: bulk update count=%d error=%v", len(uuids), err)
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) Stats(ctx context.Context) (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}
	err := r.pool.QueryRow(ctx, `
SELECT count(*),
       count(*) FILTER (WHERE is_public),
       count(*) FILTER (WHERE is_featured),
       COALESCE(sum(download_count), 0)
FROM downloads WHERE deleted_at IS NULL`).
		Scan(&stats.Total, &stats.Public, &stats.Featured, &stats.TotalDownloads)
	if err != nil {
		r.logger.Printf("download repo: stats error=%v", err)
		return nil, err
	}
	return stats, nil
}

func (r *postgresRepo) DuplicateTx(ctx context.Context, d domain.Download, atts []domain.MediaAttachment) (*domain.Download, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := fmt.Sprintf(`
INSERT INTO downloads (uuid, title, description, brand, category, file_type, file_size, is_featured, is_public,
                       sort_order, meta_title, meta_description, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING %s`, downloadCols)
	out, err := scanDownload(tx.QueryRow(ctx, q,
		d.UUID, d.Title, d.Description, d.Brand, d.Category, d.FileType, d.FileSize, d.IsFeatured, d.IsPublic,
		d.SortOrder, d.MetaTitle, d.MetaDescription, d.Tags,
	))
	if err != nil {
		r.logger.Printf("download repo: duplicate insert title=%s error=%v", d.Title, err)
		return nil, err
	}

	const attQ = `
INSERT INTO media_attachments (id, owner_type, owner_id, collection, file_name, storage_path, mime_type,
                               size_bytes, sort_order, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, a := range atts {
		if _, err := tx.Exec(ctx, attQ,
			a.ID, domain.OwnerDownload, out.ID, a.Collection, a.FileName, a.StoragePath, a.MimeType,
			a.SizeBytes, a.SortOrder, a.Featured,
		); err != nil {
			r.logger.Printf("download repo: duplicate attachment uuid=%s error=%v", out.UUID, err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("download repo: duplicated src=%d dst=%s attachments=%d", d.ID, out.UUID, len(atts))
	return out, nil
}

func collect(rows pgx.Rows) ([]domain.Download, error) {
	var result []domain.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func scanDownload(row pgx.Row) (*domain.Download, error) {
	var d domain.Download
	err := row.Scan(
		&d.ID, &d.UUID, &d.Title, &d.Description, &d.Brand, &d.Category, &d.FileType, &d.FileSize,
		&d.DownloadCount, &d.IsFeatured, &d.IsPublic, &d.SortOrder, &d.MetaTitle, &d.MetaDescription,
		&d.Tags, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
