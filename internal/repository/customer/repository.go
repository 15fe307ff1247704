package customer

import (
	"context"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// Repository persists and fetches customers.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]domain.Customer, query.Meta, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.Customer, error)
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	SoftDelete(ctx context.Context, id int64) error
	ProjectCount(ctx context.Context, customerID int64) (int64, error)
	Stats(ctx context.Context) (*domain.CustomerStats, error)
}
