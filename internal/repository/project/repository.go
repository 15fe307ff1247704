package project

import (
	"context"
	"time"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// Repository persists and fetches portfolio projects.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]domain.Project, query.Meta, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	Create(ctx context.Context, p domain.Project) (*domain.Project, error)
	Update(ctx context.Context, p domain.Project) (*domain.Project, error)
	SoftDelete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	SetSortOrder(ctx context.Context, publicID string, sortOrder int) error
	Stats(ctx context.Context, now time.Time) (*domain.ProjectStats, error)
	Related(ctx context.Context, p domain.Project, limit int) ([]domain.Project, error)
}
