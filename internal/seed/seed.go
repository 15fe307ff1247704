// Package seed inserts a default operator account and demo content for
// manual testing. Every insert is idempotent via ON CONFLICT.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/service/auth"
)

// Defaults for the seeded operator. Override the password after first login.
const (
	AdminEmail    = "admin@studio.local"
	AdminPassword = "change-me"
)

type customerSeed struct {
	FirstName string
	LastName  string
	JobTitle  string
	Company   string
	Email     string
	Status    string
}

type projectSeed struct {
	Slug           string
	CustomerEmail  string
	Name           string
	ShortDesc      string
	ProductionType string
	Category       string
	Status         string
}

type downloadSeed struct {
	Title    string
	Brand    string
	Category string
	FileType string
}

// Apply inserts the operator account and demo content.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureAdmin(ctx, pool); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	customers := []customerSeed{
		{"Maya", "Lindqvist", "Marketing Lead", "Northwind Coffee", "maya@northwind.example", "active"},
		{"Jonas", "Berg", "Founder", "Bergman Audio", "jonas@bergman.example", "prospect"},
	}
	for _, c := range customers {
		if err := upsertCustomer(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert customer %s: %w", c.Email, err)
		}
	}

	projects := []projectSeed{
		{"northwind-rebrand", "maya@northwind.example", "Northwind Rebrand", "Full visual identity refresh", "branding", "identity", "completed"},
		{"bergman-store", "jonas@bergman.example", "Bergman Web Store", "E-commerce site for boutique audio gear", "web_development", "ecommerce", "in_progress"},
	}
	for _, p := range projects {
		if err := upsertProject(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert project %s: %w", p.Slug, err)
		}
	}

	downloads := []downloadSeed{
		{"Studio Logo Pack", "Studio", "logos", "zip"},
		{"Brand Guidelines", "Studio", "guidelines", "pdf"},
	}
	for i, d := range downloads {
		if err := upsertDownload(ctx, pool, d, i+1); err != nil {
			return fmt.Errorf("upsert download %s: %w", d.Title, err)
		}
	}

	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (name, email, password_hash)
VALUES ('Administrator', $1, $2)
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, AdminEmail, hash)
	return err
}

func upsertCustomer(ctx context.Context, pool *pgxpool.Pool, c customerSeed) error {
	const q = `
INSERT INTO customers (first_name, last_name, job_title, company_name, email, status)
VALUES ($1, $2, $3, $4, lower($5), $6)
ON CONFLICT (lower(email)) WHERE deleted_at IS NULL DO UPDATE
SET first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    job_title = EXCLUDED.job_title,
    company_name = EXCLUDED.company_name,
    status = EXCLUDED.status
`
	_, err := pool.Exec(ctx, q, c.FirstName, c.LastName, c.JobTitle, c.Company, c.Email, c.Status)
	return err
}

func upsertProject(ctx context.Context, pool *pgxpool.Pool, p projectSeed) error {
	const q = `
INSERT INTO projects (slug, customer_id, name, short_description, production_type, category, status)
SELECT $1, c.id, $2, $3, $4, $5, $6
FROM customers c
WHERE lower(c.email) = lower($7) AND c.deleted_at IS NULL
ON CONFLICT (slug) WHERE deleted_at IS NULL DO UPDATE
SET name = EXCLUDED.name,
    short_description = EXCLUDED.short_description,
    production_type = EXCLUDED.production_type,
    category = EXCLUDED.category,
    status = EXCLUDED.status
`
	_, err := pool.Exec(ctx, q, p.Slug, p.Name, p.ShortDesc, p.ProductionType, p.Category, p.Status, p.CustomerEmail)
	return err
}

func upsertDownload(ctx context.Context, pool *pgxpool.Pool, d downloadSeed, sortOrder int) error {
	const q = `
INSERT INTO downloads (title, brand, category, file_type, sort_order)
SELECT $1, $2, $3, $4, $5
WHERE NOT EXISTS (
    SELECT 1 FROM downloads WHERE title = $1 AND deleted_at IS NULL
)
`
	_, err := pool.Exec(ctx, q, d.Title, d.Brand, d.Category, d.FileType, sortOrder)
	return err
}
