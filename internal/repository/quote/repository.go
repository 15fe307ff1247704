package quote

import (
	"context"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// Repository persists quote requests.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]domain.Quote, query.Meta, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.Quote, error)
	Create(ctx context.Context, q domain.Quote) (*domain.Quote, error)
	UpdateStatus(ctx context.Context, publicID, status, adminNotes string) (*domain.Quote, error)
	SetNotified(ctx context.Context, id int64, notified bool) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
