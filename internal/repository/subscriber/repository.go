package subscriber

import (
	"context"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// Repository persists newsletter subscribers.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]domain.Subscriber, query.Meta, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	Create(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error)
	Update(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
