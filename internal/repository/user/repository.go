package user

import (
	"context"

	"studiosite/internal/domain"
)

// Repository persists operator accounts.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}
