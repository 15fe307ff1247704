package download

import (
	"context"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

// BulkFields are the attributes a bulk update may touch; nil means unchanged.
type BulkFields struct {
	IsFeatured *bool   `json:"isFeatured"`
	IsPublic   *bool   `json:"isPublic"`
	Brand      *string `json:"brand"`
	Category   *string `json:"category"`
}

// Repository persists and fetches downloadable brand assets.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]domain.Download, query.Meta, error)
	ListAll(ctx context.Context, p query.Params) ([]domain.Download, error)
	GetByUUID(ctx context.Context, uuid string) (*domain.Download, error)
	Create(ctx context.Context, d domain.Download) (*domain.Download, error)
	Update(ctx context.Context, d domain.Download) (*domain.Download, error)
	SoftDelete(ctx context.Context, id int64) error
	SetSortOrder(ctx context.Context, uuid string, sortOrder int) error
	SetFileMeta(ctx context.Context, id int64, fileType string, fileSize int64) error
	MaxSortOrder(ctx context.Context) (int, error)
	IncrementDownloadCount(ctx context.Context, id int64) (int64, error)
	BulkUpdate(ctx context.Context, uuids []string, fields BulkFields) (int64, error)
	Stats(ctx context.Context) (*domain.DownloadStats, error)
	// DuplicateTx inserts the copied row and its attachment rows in a single
	// transaction; either all of it lands or none of it does.
	DuplicateTx(ctx context.Context, d domain.Download, atts []domain.MediaAttachment) (*domain.Download, error)
}
