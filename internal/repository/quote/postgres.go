package quote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

var sortFields = map[string]string{
	"name":       "name",
	"email":      "email",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const defaultOrder = "created_at DESC"

const quoteCols = `id, public_id::text, name, email, phone, company, project_type, budget_range, timeline,
       description, goals, status, admin_notes, notified, created_at, updated_at`

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

func (r *postgresRepo) List(ctx context.Context, p query.Params) ([]domain.Quote, query.Meta, error) {
	b := &query.Builder{}
	b.Where("1 = 1")
	if search, ok := p.Filter("search"); ok && search != "" {
		needle := "%" + search + "%"
		b.Where("(name ILIKE ? OR email ILIKE ? OR company ILIKE ?)", needle, needle, needle)
	}
	if status, ok := p.Filter("status"); ok && status != "" {
		b.Where("status = ?", status)
	}
	if pt, ok := p.Filter("project_type"); ok && pt != "" {
		b.Where("project_type = ?", pt)
	}
	where, args := b.Clause()

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM quotes "+where, args...).Scan(&total); err != nil {
		r.logger.Printf("quote repo: count error=%v", err)
		return nil, query.Meta{}, err
	}

	q := fmt.Sprintf("SELECT %s FROM quotes %s ORDER BY %s LIMIT $%d OFFSET $%d",
		quoteCols, where, p.OrderBy(sortFields, defaultOrder), b.NextArg(), b.NextArg()+1)
	rows, err := r.pool.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		r.logger.Printf("quote repo: list error=%v", err)
		return nil, query.Meta{}, err
	}
	defer rows.Close()

	var result []domain.Quote
	for rows.Next() {
		out, err := scanQuote(rows)
		if err != nil {
			return nil, query.Meta{}, err
		}
		result = append(result, *out)
	}
	if err := rows.Err(); err != nil {
		return nil, query.Meta{}, err
	}
	return result, query.NewMeta(total, p.Page, p.PerPage), nil
}

func (r *postgresRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.Quote, error) {
	q := fmt.Sprintf("SELECT %s FROM quotes WHERE public_id = $1 LIMIT 1", quoteCols)
	out, err := scanQuote(r.pool.QueryRow(ctx, q, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("quote repo: get public_id=%s error=%v", publicID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, in domain.Quote) (*domain.Quote, error) {
	q := fmt.Sprintf(`
INSERT INTO quotes (public_id, name, email, phone, company, project_type, budget_range, timeline, description, goals, status)
VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING %s`, quoteCols)
	out, err := scanQuote(r.pool.QueryRow(ctx, q,
		in.PublicID, in.Name, in.Email, in.Phone, in.Company, in.ProjectType, in.BudgetRange, in.Timeline,
		in.Description, in.Goals, in.Status,
	))
	if err != nil {
		r.logger.Printf("quote repo: create email=%s error=%v", in.Email, err)
		return nil, err
	}
	r.logger.Printf("quote repo: created id=%s", out.PublicID)
	return out, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, publicID, status, adminNotes string) (*domain.Quote, error) {
	q := fmt.Sprintf(`
UPDATE quotes SET status = $2, admin_notes = $3, updated_at = now()
WHERE public_id = $1
RETURNING %s`, quoteCols)
	out, err := scanQuote(r.pool.QueryRow(ctx, q, publicID, status, adminNotes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("quote repo: update status public_id=%s error=%v", publicID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SetNotified(ctx context.Context, id int64, notified bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotes SET notified = $2, updated_at = now() WHERE id = $1`, id, notified)
	if err != nil {
		r.logger.Printf("quote repo: set notified id=%d error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM quotes GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var k string
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.ID, &q.PublicID, &q.Name, &q.Email, &q.Phone, &q.Company, &q.ProjectType, &q.BudgetRange,
		&q.Timeline, &q.Description, &q.Goals, &q.Status, &q.AdminNotes, &q.Notified, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
