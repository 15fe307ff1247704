package download

import (
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"studiosite/internal/domain"
	"studiosite/internal/export"
	"studiosite/internal/media"
	"studiosite/internal/query"
	dlrepo "studiosite/internal/repository/download"
	"studiosite/internal/validate"
)

// Service handles downloadable brand assets: metadata, the payload file, the
// poster image and the public download counter.
type Service struct {
	repo   dlrepo.Repository
	media  *media.Service
	logger *log.Logger
}

// New creates a Service.
func New(repo dlrepo.Repository, m *media.Service, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, media: m, logger: logger}
}

// CreateInput captures fields accepted when creating a download.
type CreateInput struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category"`
	IsFeatured      bool     `json:"isFeatured"`
	IsPublic        *bool    `json:"isPublic"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Tags            []string `json:"tags"`
}

// UpdateInput carries a partial update; nil fields stay untouched.
type UpdateInput struct {
	Title           *string  `json:"title" validate:"omitempty,min=1"`
	Description     *string  `json:"description"`
	Brand           *string  `json:"brand"`
	Category        *string  `json:"category"`
	IsFeatured      *bool    `json:"isFeatured"`
	IsPublic        *bool    `json:"isPublic"`
	SortOrder       *int     `json:"sortOrder" validate:"omitempty,gte=0"`
	MetaTitle       *string  `json:"metaTitle"`
	MetaDescription *string  `json:"metaDescription"`
	Tags            []string `json:"tags"`
}

// List returns a filtered, sorted page of downloads for the admin area.
func (s *Service) List(ctx context.Context, p query.Params) ([]domain.Download, query.Meta, error) {
	downloads, meta, err := s.repo.List(ctx, p.Normalize(query.DefaultAdminPerPage))
	if err != nil {
		return nil, query.Meta{}, err
	}
	for i := range downloads {
		if err := s.loadMedia(ctx, &downloads[i]); err != nil {
			return nil, query.Meta{}, err
		}
	}
	return downloads, meta, nil
}

// ListPublic returns public downloads only.
func (s *Service) ListPublic(ctx context.Context, p query.Params) ([]domain.Download, query.Meta, error) {
	if p.Filters == nil {
		p.Filters = map[string]string{}
	}
	p.Filters["public"] = "true"
	return s.List(ctx, p.Normalize(query.DefaultPublicPerPage))
}

// Get fetches one download by its route UUID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Download, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	d, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadMedia(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Create validates and persists a new download at the end of the sort order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Download, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	maxOrder, err := s.repo.MaxSortOrder(ctx)
	if err != nil {
		return nil, err
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	d, err := s.repo.Create(ctx, domain.Download{
		UUID:            uuid.New().String(),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Brand:           in.Brand,
		Category:        in.Category,
		IsFeatured:      in.IsFeatured,
		IsPublic:        isPublic,
		SortOrder:       maxOrder + 1,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Tags:            in.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("download service: created uuid=%s title=%q", d.UUID, d.Title)
	return d, nil
}

// Update merges the supplied fields into the stored download and persists.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Download, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		d.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Brand != nil {
		d.Brand = *in.Brand
	}
	if in.Category != nil {
		d.Category = *in.Category
	}
	if in.IsFeatured != nil {
		d.IsFeatured = *in.IsFeatured
	}
	if in.IsPublic != nil {
		d.IsPublic = *in.IsPublic
	}
	if in.SortOrder != nil {
		d.SortOrder = *in.SortOrder
	}
	if in.MetaTitle != nil {
		d.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		d.MetaDescription = *in.MetaDescription
	}
	if in.Tags != nil {
		d.Tags = in.Tags
	}
	updated, err := s.repo.Update(ctx, *d)
	if err != nil {
		return nil, err
	}
	if err := s.loadMedia(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a download and removes its stored files.
func (s *Service) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.ClearOwner(ctx, domain.OwnerDownload, d.ID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, d.ID); err != nil {
		return err
	}
	s.logger.Printf("download service: deleted uuid=%s", id)
	return nil
}

// UploadPoster replaces the download's poster image.
func (s *Service) UploadPoster(ctx context.Context, id string, up media.Upload) (*domain.MediaAttachment, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.media.Attach(ctx, domain.OwnerDownload, d.ID, domain.CollectionPoster, up)
}

// UploadFile replaces the download's payload and refreshes the denormalized
// file type and size columns.
func (s *Service) UploadFile(ctx context.Context, id string, up media.Upload) (*domain.MediaAttachment, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	att, err := s.media.Attach(ctx, domain.OwnerDownload, d.ID, domain.CollectionFile, up)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetFileMeta(ctx, d.ID, fileType(up.FileName), att.SizeBytes); err != nil {
		return nil, err
	}
	return att, nil
}

// Duplicate copies a download including both of its files. Either the full
// copy lands (row, attachments, blobs) or nothing is persisted; copied blobs
// are removed when the transaction fails.
func (s *Service) Duplicate(ctx context.Context, id string) (*domain.Download, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = 0
	dup.UUID = uuid.New().String()
	dup.Title = src.Title + " (Copy)"
	dup.DownloadCount = 0
	dup.Poster = nil
	dup.File = nil
	maxOrder, err := s.repo.MaxSortOrder(ctx)
	if err != nil {
		return nil, err
	}
	dup.SortOrder = maxOrder + 1

	atts, paths, err := s.media.CopyOwner(ctx, domain.OwnerDownload, src.ID, dup.UUID)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.DuplicateTx(ctx, dup, atts)
	if err != nil {
		s.media.DeleteBlobs(paths)
		return nil, err
	}
	if err := s.loadMedia(ctx, out); err != nil {
		return nil, err
	}
	s.logger.Printf("download service: duplicated %s -> %s", src.UUID, out.UUID)
	return out, nil
}

// ProcessDownload serves a public download request: the asset must be public
// and carry a payload file. The counter increments atomically and the URL of
// the stored file is returned.
func (s *Service) ProcessDownload(ctx context.Context, id string) (url string, count int64, err error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if !d.IsPublic {
		return "", 0, domain.ErrNotFound
	}
	if d.File == nil {
		return "", 0, domain.NewValidationError("file", "download has no file attached")
	}
	count, err = s.repo.IncrementDownloadCount(ctx, d.ID)
	if err != nil {
		return "", 0, err
	}
	return d.File.URL, count, nil
}

// ReorderResult reports the outcome of a manual ordering update.
type ReorderResult struct {
	Updated int               `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Reorder assigns explicit sort positions. Unknown identifiers are reported
// per item; the remaining updates still apply.
func (s *Service) Reorder(ctx context.Context, items []domain.ReorderItem) (*ReorderResult, error) {
	res := &ReorderResult{Errors: map[string]string{}}
	for _, it := range items {
		if err := s.repo.SetSortOrder(ctx, it.PublicID, it.SortOrder); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.Errors[it.PublicID] = "not found"
				continue
			}
			return nil, err
		}
		res.Updated++
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// BulkUpdate applies the given fields to every download in uuids and returns
// how many rows changed.
func (s *Service) BulkUpdate(ctx context.Context, uuids []string, fields dlrepo.BulkFields) (int64, error) {
	if len(uuids) == 0 {
		return 0, domain.NewValidationError("ids", "at least one id is required")
	}
	return s.repo.BulkUpdate(ctx, uuids, fields)
}

// BulkDelete soft-deletes every download in uuids, clearing stored files as
// it goes. Unknown ids are skipped; the count of deleted rows is returned.
func (s *Service) BulkDelete(ctx context.Context, uuids []string) (int64, error) {
	if len(uuids) == 0 {
		return 0, domain.NewValidationError("ids", "at least one id is required")
	}
	var deleted int64
	for _, id := range uuids {
		err := s.Delete(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Export writes the full (unpaged) filtered download catalog to a temporary
// file in the requested format and returns its path.
func (s *Service) Export(ctx context.Context, p query.Params, format string) (string, error) {
	downloads, err := s.repo.ListAll(ctx, p)
	if err != nil {
		return "", err
	}
	switch format {
	case export.FormatCSV, export.FormatJSON:
		return export.Downloads(downloads, format)
	default:
		return "", domain.NewValidationError("format", "must be csv or json")
	}
}

// Stats returns catalog counters for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (*domain.DownloadStats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) loadMedia(ctx context.Context, d *domain.Download) error {
	poster, err := s.media.First(ctx, domain.OwnerDownload, d.ID, domain.CollectionPoster)
	if err != nil {
		return err
	}
	d.Poster = poster
	file, err := s.media.First(ctx, domain.OwnerDownload, d.ID, domain.CollectionFile)
	if err != nil {
		return err
	}
	d.File = file
	return nil
}

// fileType derives the catalog file type from the payload's extension.
func fileType(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}
