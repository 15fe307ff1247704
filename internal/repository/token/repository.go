package token

import (
	"context"
	"time"
)

// Token is an opaque admin session token persisted in the database.
type Token struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Repository persists session tokens.
type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
