package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

var sortFields = map[string]string{
	"name":            "p.name",
	"status":          "p.status",
	"priority":        "p.priority",
	"start_date":      "p.start_date",
	"end_date":        "p.end_date",
	"estimated_hours": "p.estimated_hours",
	"actual_hours":    "p.actual_hours",
	"budget":          "p.budget",
	"sort_order":      "p.sort_order",
	"created_at":      "p.created_at",
	"updated_at":      "p.updated_at",
}

// Ordering used whenever the caller asks for nothing recognizable.
const defaultOrder = "p.sort_order ASC, p.created_at DESC"

const projectCols = `p.id, p.public_id::text, p.slug, p.customer_id, c.public_id::text, c.first_name || ' ' || c.last_name,
       p.name, p.description, p.short_description, p.production_type, p.category, p.status, p.priority,
       p.start_date, p.end_date, p.estimated_hours, p.actual_hours, p.budget, p.technologies, p.features,
       p.challenges, p.solutions, p.results, p.client_feedback, p.is_featured, p.is_public, p.sort_order,
       p.meta_title, p.meta_description, p.live_url, p.github_url, p.figma_url, p.behance_url, p.dribbble_url,
       p.deleted_at, p.created_at, p.updated_at`

const fromClause = `FROM projects p JOIN customers c ON c.id = p.customer_id`

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
	b.Where("p.deleted_at IS NULL")
	if search, ok := p.Filter("search"); ok && search != "" {
		needle := "%" + search + "%"
		b.Where("(p.name ILIKE ? OR p.description ILIKE ? OR c.first_name ILIKE ? OR c.last_name ILIKE ? OR c.company_name ILIKE ?)",
			needle, needle, needle, needle, needle)
	}
	if status, ok := p.Filter("status"); ok && status != "" {
		b.Where("p.status = ?", status)
	}
	if pt, ok := p.Filter("production_type"); ok && pt != "" {
		b.Where("p.production_type = ?", pt)
	}
	if cat, ok := p.Filter("category"); ok && cat != "" {
		b.Where("p.category = ?", cat)
	}
	if prio, ok := p.Filter("priority"); ok && prio != "" {
		b.Where("p.priority = ?", prio)
	}
	if custID, ok := p.Filter("customer_id"); ok && custID != "" {
		// Always the opaque public identifier at the boundary.
		b.Where("c.public_id::text = ?", custID)
	}
	if featured := p.BoolFilter("featured"); featured != nil {
		b.Where("p.is_featured = ?", *featured)
	}
	if public := p.BoolFilter("public"); public != nil {
		b.Where("p.is_public = ?", *public)
	}
	if from, ok := p.Filter("start_date"); ok && from != "" {
		b.Where("p.start_date >= ?", from)
	}
	if to, ok := p.Filter("end_date"); ok && to != "" {
		b.Where("p.end_date <= ?", to)
	}
	return b
}

func (r *postgresRepo) List(ctx context.Context, p query.Params) ([]domain.Project, query.Meta, error) {
	b := buildFilters(p)
	where, args := b.Clause()

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) %s %s", fromClause, where), args...).Scan(&total); err != nil {
		r.logger.Printf("project repo: count error=%v", err)
		return nil, query.Meta{}, err
	}

	q := fmt.Sprintf("SELECT %s %s %s ORDER BY %s LIMIT $%d OFFSET $%d",
		projectCols, fromClause, where, p.OrderBy(sortFields, defaultOrder), b.NextArg(), b.NextArg()+1)
	rows, err := r.pool.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		r.logger.Printf("project repo: list error=%v", err)
		return nil, query.Meta{}, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, query.Meta{}, err
		}
		result = append(result, *proj)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("project repo: list rows error=%v", err)
		return nil, query.Meta{}, err
	}
	return result, query.NewMeta(total, p.Page, p.PerPage), nil
}

func (r *postgresRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error) {
	q := fmt.Sprintf("SELECT %s %s WHERE p.public_id = $1 AND p.deleted_at IS NULL LIMIT 1", projectCols, fromClause)
	return r.getOne(ctx, q, publicID)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	q := fmt.Sprintf("SELECT %s %s WHERE p.slug = $1 AND p.deleted_at IS NULL LIMIT 1", projectCols, fromClause)
	return r.getOne(ctx, q, slug)
}

func (r *postgresRepo) getOne(ctx context.Context, q string, arg any) (*domain.Project, error) {
	proj, err := scanProject(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("project repo: get arg=%v error=%v", arg, err)
		return nil, err
	}
	return proj, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Project) (*domain.Project, error) {
	const q = `
INSERT INTO projects (public_id, slug, customer_id, name, description, short_description, production_type,
                      category, status, priority, start_date, end_date, estimated_hours, actual_hours, budget,
                      technologies, features, challenges, solutions, results, client_feedback, is_featured,
                      is_public, sort_order, meta_title, meta_description, live_url, github_url, figma_url,
                      behance_url, dribbble_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
        $23, $24, $25, $26, $27, $28, $29, $30, $31)
RETURNING public_id::text`
	var publicID string
	err := r.pool.QueryRow(ctx, q,
		p.PublicID, p.Slug, p.CustomerID, p.Name, p.Description, p.ShortDescription, p.ProductionType,
		p.Category, p.Status, p.Priority, p.StartDate, p.EndDate, p.EstimatedHours, p.ActualHours, p.Budget,
		p.Technologies, p.Features, p.Challenges, p.Solutions, p.Results, p.ClientFeedback, p.IsFeatured,
		p.IsPublic, p.SortOrder, p.MetaTitle, p.MetaDescription, p.LiveURL, p.GithubURL, p.FigmaURL,
		p.BehanceURL, p.DribbbleURL,
	).Scan(&publicID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("project repo: create slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	r.logger.Printf("project repo: created id=%s slug=%s", publicID, p.Slug)
	return r.GetByPublicID(ctx, publicID)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Project) (*domain.Project, error) {
	const q = `
UPDATE projects
SET slug = $2, customer_id = $3, name = $4, description = $5, short_description = $6, production_type = $7,
    category = $8, status = $9, priority = $10, start_date = $11, end_date = $12, estimated_hours = $13,
    actual_hours = $14, budget = $15, technologies = $16, features = $17, challenges = $18, solutions = $19,
    results = $20, client_feedback = $21, is_featured = $22, is_public = $23, sort_order = $24,
    meta_title = $25, meta_description = $26, live_url = $27, github_url = $28, figma_url = $29,
    behance_url = $30, dribbble_url = $31, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING public_id::text`
	var publicID string
	err := r.pool.QueryRow(ctx, q,
		p.ID, p.Slug, p.CustomerID, p.Name, p.Description, p.ShortDescription, p.ProductionType,
		p.Category, p.Status, p.Priority, p.StartDate, p.EndDate, p.EstimatedHours,
		p.ActualHours, p.Budget, p.Technologies, p.Features, p.Challenges, p.Solutions,
		p.Results, p.ClientFeedback, p.IsFeatured, p.IsPublic, p.SortOrder,
		p.MetaTitle, p.MetaDescription, p.LiveURL, p.GithubURL, p.FigmaURL,
		p.BehanceURL, p.DribbbleURL,
	).Scan(&publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("project repo: update id=%d error=%v", p.ID, err)
		return nil, err
	}
	return r.GetByPublicID(ctx, publicID)
}

func (r *postgresRepo) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE projects SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Printf("project repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE slug = $1 AND id <> $2 AND deleted_at IS NULL)`,
		slug, excludeID).Scan(&exists)
	if err != nil {
		r.logger.Printf("project repo: slug exists slug=%s error=%v", slug, err)
		return false, err
	}
	return exists, nil
}

func (r *postgresRepo) SetSortOrder(ctx context.Context, publicID string, sortOrder int) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE projects SET sort_order = $2, updated_at = now() WHERE public_id = $1 AND deleted_at IS NULL`,
		publicID, sortOrder)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Stats(ctx context.Context, now time.Time) (*domain.ProjectStats, error) {
	stats := &domain.ProjectStats{ByStatus: map[string]int64{}, ByProductionType: map[string]int64{}}

	err := r.pool.QueryRow(ctx, `
SELECT count(*),
       count(*) FILTER (WHERE status = 'in_progress'),
       count(*) FILTER (WHERE status = 'completed'),
       count(*) FILTER (WHERE is_featured),
       count(*) FILTER (WHERE is_public),
       count(*) FILTER (WHERE end_date < $1 AND status NOT IN ('completed', 'cancelled')),
       COALESCE(avg(end_date - start_date) FILTER (WHERE start_date IS NOT NULL AND end_date IS NOT NULL), 0),
       COALESCE(sum(estimated_hours), 0),
       COALESCE(sum(actual_hours), 0),
       COALESCE(sum(budget), 0)
FROM projects
WHERE deleted_at IS NULL`, now).Scan(
		&stats.Total, &stats.Active, &stats.Completed, &stats.Featured, &stats.Public, &stats.Overdue,
		&stats.AvgDurationDays, &stats.EstimatedHours, &stats.ActualHours, &stats.Budget,
	)
	if err != nil {
		r.logger.Printf("project repo: stats error=%v", err)
		return nil, err
	}

	byStatus, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM projects WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer byStatus.Close()
	for byStatus.Next() {
		var k string
		var n int64
		if err := byStatus.Scan(&k, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[k] = n
	}
	if err := byStatus.Err(); err != nil {
		return nil, err
	}

	byType, err := r.pool.Query(ctx,
		`SELECT production_type, count(*) FROM projects WHERE deleted_at IS NULL AND production_type <> '' GROUP BY production_type`)
	if err != nil {
		return nil, err
	}
	defer byType.Close()
	for byType.Next() {
		var k string
		var n int64
		if err := byType.Scan(&k, &n); err != nil {
			return nil, err
		}
		stats.ByProductionType[k] = n
	}
	if err := byType.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *postgresRepo) Related(ctx context.Context, p domain.Project, limit int) ([]domain.Project, error) {
	q := fmt.Sprintf(`
SELECT %s %s
WHERE p.deleted_at IS NULL AND p.is_public AND p.id <> $1
  AND ((p.production_type <> '' AND p.production_type = $2) OR (p.category <> '' AND p.category = $3))
ORDER BY p.is_featured DESC, p.sort_order ASC, p.created_at DESC
LIMIT $4`, projectCols, fromClause)
	rows, err := r.pool.Query(ctx, q, p.ID, p.ProductionType, p.Category, limit)
	if err != nil {
		r.logger.Printf("project repo: related id=%d error=%v", p.ID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *proj)
	}
	return result, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.PublicID, &p.Slug, &p.CustomerID, &p.CustomerPublicID, &p.CustomerName,
		&p.Name, &p.Description, &p.ShortDescription, &p.ProductionType, &p.Category, &p.Status, &p.Priority,
		&p.StartDate, &p.EndDate, &p.EstimatedHours, &p.ActualHours, &p.Budget, &p.Technologies, &p.Features,
		&p.Challenges, &p.Solutions, &p.Results, &p.ClientFeedback, &p.IsFeatured, &p.IsPublic, &p.SortOrder,
		&p.MetaTitle, &p.MetaDescription, &p.LiveURL, &p.GithubURL, &p.FigmaURL, &p.BehanceURL, &p.DribbbleURL,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
