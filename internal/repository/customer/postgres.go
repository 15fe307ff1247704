package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// Sortable fields exposed to callers, mapped to their SQL expressions.
var sortFields = map[string]string{
	"first_name":   "first_name",
	"last_name":    "last_name",
	"company_name": "company_name",
	"email":        "email",
	"status":       "status",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

const defaultOrder = "created_at DESC"

const customerCols = `id, public_id::text, first_name, last_name, job_title, company_name, email, phone, website,
       street, city, state, postal_code, country, notes, status, avatar_url, deleted_at, created_at, updated_at`

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

func (r *postgresRepo) List(ctx context.Context, p query.Params) ([]domain.Customer, query.Meta, error) {
	b := &query.Builder{}
	b.Where("deleted_at IS NULL")
	if search, ok := p.Filter("search"); ok && search != "" {
		needle := "%" + search + "%"
		b.Where("(first_name ILIKE ? OR last_name ILIKE ? OR company_name ILIKE ? OR email ILIKE ?)", needle, needle, needle, needle)
	}
	if status, ok := p.Filter("status"); ok && status != "" {
		b.Where("status = ?", status)
	}
	if company, ok := p.Filter("company_name"); ok && company != "" {
		b.Where("company_name ILIKE ?", "%"+company+"%")
	}

	where, args := b.Clause()

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM customers "+where, args...).Scan(&total); err != nil {
		r.logger.Printf("customer repo: count error=%v", err)
		return nil, query.Meta{}, err
	}

	q := fmt.Sprintf("SELECT %s FROM customers %s ORDER BY %s LIMIT $%d OFFSET $%d",
		customerCols, where, p.OrderBy(sortFields, defaultOrder), b.NextArg(), b.NextArg()+1)
	rows, err := r.pool.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		r.logger.Printf("customer repo: list error=%v", err)
		return nil, query.Meta{}, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, query.Meta{}, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("customer repo: list rows error=%v", err)
		return nil, query.Meta{}, err
	}
	return result, query.NewMeta(total, p.Page, p.PerPage), nil
}

func (r *postgresRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.Customer, error) {
	q := fmt.Sprintf("SELECT %s FROM customers WHERE public_id = $1 AND deleted_at IS NULL LIMIT 1", customerCols)
	c, err := scanCustomer(r.pool.QueryRow(ctx, q, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("customer repo: get public_id=%s error=%v", publicID, err)
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	q := fmt.Sprintf(`
INSERT INTO customers (public_id, first_name, last_name, job_title, company_name, email, phone, website,
                       street, city, state, postal_code, country, notes, status, avatar_url)
VALUES ($1, $2, $3, $4, $5, lower($6), $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING %s`, customerCols)
	out, err := scanCustomer(r.pool.QueryRow(ctx, q,
		c.PublicID, c.FirstName, c.LastName, c.JobTitle, c.CompanyName, c.Email, c.Phone, c.Website,
		c.Street, c.City, c.State, c.PostalCode, c.Country, c.Notes, c.Status, c.AvatarURL,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: create email=%s error=%v", c.Email, err)
		return nil, err
	}
	r.logger.Printf("customer repo: created id=%s", out.PublicID)
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	q := fmt.Sprintf(`
UPDATE customers
SET first_name = $2, last_name = $3, job_title = $4, company_name = $5, email = lower($6), phone = $7,
    website = $8, street = $9, city = $10, state = $11, postal_code = $12, country = $13, notes = $14,
    status = $15, avatar_url = $16, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING %s`, customerCols)
	out, err := scanCustomer(r.pool.QueryRow(ctx, q,
		c.ID, c.FirstName, c.LastName, c.JobTitle, c.CompanyName, c.Email, c.Phone,
		c.Website, c.Street, c.City, c.State, c.PostalCode, c.Country, c.Notes,
		c.Status, c.AvatarURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: update id=%d error=%v", c.ID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE customers SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Printf("customer repo: delete id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ProjectCount(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM projects WHERE customer_id = $1 AND deleted_at IS NULL`, customerID).Scan(&n)
	if err != nil {
		r.logger.Printf("customer repo: project count customer_id=%d error=%v", customerID, err)
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) Stats(ctx context.Context) (*domain.CustomerStats, error) {
	stats := &domain.CustomerStats{ByStatus: map[string]int64{}}

	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM customers WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
SELECT count(DISTINCT c.id)
FROM customers c
JOIN projects p ON p.customer_id = c.id AND p.deleted_at IS NULL
WHERE c.deleted_at IS NULL`).Scan(&stats.WithProjects)
	if err != nil {
		return nil, err
	}

	top, err := r.pool.Query(ctx, `
SELECT c.public_id::text, c.first_name || ' ' || c.last_name, c.company_name, count(p.id) AS n
FROM customers c
JOIN projects p ON p.customer_id = c.id AND p.deleted_at IS NULL
WHERE c.deleted_at IS NULL
GROUP BY c.id
ORDER BY n DESC, c.created_at ASC
LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer top.Close()
	for top.Next() {
		var cc domain.CustomerCount
		if err := top.Scan(&cc.PublicID, &cc.Name, &cc.CompanyName, &cc.ProjectCount); err != nil {
			return nil, err
		}
		stats.TopByProject = append(stats.TopByProject, cc)
	}
	if err := top.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.PublicID, &c.FirstName, &c.LastName, &c.JobTitle, &c.CompanyName, &c.Email, &c.Phone, &c.Website,
		&c.Street, &c.City, &c.State, &c.PostalCode, &c.Country, &c.Notes, &c.Status, &c.AvatarURL,
		&c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
