// Package media associates uploaded files with an owning entity under named
// collections, fronting a BlobStore for the bytes and a metadata repository
// for the rows.
package media

import (
	"context"
	"io"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"studiosite/internal/domain"
)

// Repository persists attachment metadata rows. ListByOwner with an empty
// collection returns attachments across all of the owner's collections.
type Repository interface {
	Insert(ctx context.Context, a domain.MediaAttachment) (*domain.MediaAttachment, error)
	ListByOwner(ctx context.Context, ownerType string, ownerID int64, collection string) ([]domain.MediaAttachment, error)
	Get(ctx context.Context, id string) (*domain.MediaAttachment, error)
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerType string, ownerID int64, collections ...string) ([]domain.MediaAttachment, error)
	MaxSortOrder(ctx context.Context, ownerType string, ownerID int64, collection string) (int, error)
}

// Upload is one inbound file.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
	Featured bool
}

// Service orchestrates blob writes and attachment bookkeeping.
type Service struct {
	repo   Repository
	store  BlobStore
	logger *log.Logger
}

// New creates a media Service.
func New(repo Repository, store BlobStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, store: store, logger: logger}
}

// Attach validates, stores and records a single upload. Single-file
// collections replace any existing attachment in place.
func (s *Service) Attach(ctx context.Context, ownerType string, ownerID int64, collection string, up Upload) (*domain.MediaAttachment, error) {
	if err := ValidateUpload(collection, up); err != nil {
		return nil, err
	}

	if rule := CollectionRules[collection]; rule.Single {
		if err := s.clear(ctx, ownerType, ownerID, collection); err != nil {
			return nil, err
		}
	}

	maxOrder, err := s.repo.MaxSortOrder(ctx, ownerType, ownerID, collection)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	storagePath := blobPath(ownerType, strconv.FormatInt(ownerID, 10), collection, id, up.FileName)
	if err := s.store.Upload(storagePath, up.MimeType, up.Data); err != nil {
		return nil, &domain.StorageError{Op: "upload", Entity: ownerType, ID: id, Err: err}
	}

	att, err := s.repo.Insert(ctx, domain.MediaAttachment{
		ID:          id,
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		Collection:  collection,
		FileName:    up.FileName,
		StoragePath: storagePath,
		MimeType:    up.MimeType,
		SizeBytes:   int64(len(up.Data)),
		SortOrder:   maxOrder + 1,
		Featured:    up.Featured,
	})
	if err != nil {
		// Do not leave a blob without a row behind.
		if derr := s.store.Delete([]string{storagePath}); derr != nil {
			s.logger.Printf("media: cleanup after insert failure path=%s err=%v", storagePath, derr)
		}
		return nil, err
	}
	s.resolve(att)
	s.logger.Printf("media: attached owner=%s/%d collection=%s id=%s size=%d", ownerType, ownerID, collection, att.ID, att.SizeBytes)
	return att, nil
}

// AttachMany stores several uploads into a multi-file collection. Every file
// is validated before the first byte is stored.
func (s *Service) AttachMany(ctx context.Context, ownerType string, ownerID int64, collection string, ups []Upload) ([]domain.MediaAttachment, error) {
	for _, up := range ups {
		if err := ValidateUpload(collection, up); err != nil {
			return nil, err
		}
	}
	out := make([]domain.MediaAttachment, 0, len(ups))
	for _, up := range ups {
		att, err := s.Attach(ctx, ownerType, ownerID, collection, up)
		if err != nil {
			return out, err
		}
		out = append(out, *att)
	}
	return out, nil
}

// List returns a collection's attachments with URLs resolved, ordered by
// sort_order.
func (s *Service) List(ctx context.Context, ownerType string, ownerID int64, collection string) ([]domain.MediaAttachment, error) {
	atts, err := s.repo.ListByOwner(ctx, ownerType, ownerID, collection)
	if err != nil {
		return nil, err
	}
	for i := range atts {
		s.resolve(&atts[i])
	}
	return atts, nil
}

// First returns the single attachment of a collection, or nil when empty.
func (s *Service) First(ctx context.Context, ownerType string, ownerID int64, collection string) (*domain.MediaAttachment, error) {
	atts, err := s.List(ctx, ownerType, ownerID, collection)
	if err != nil {
		return nil, err
	}
	if len(atts) == 0 {
		return nil, nil
	}
	return &atts[0], nil
}

// Remove deletes one attachment row and its blob.
func (s *Service) Remove(ctx context.Context, id string) error {
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete([]string{att.StoragePath}); err != nil {
		return &domain.StorageError{Op: "delete", Entity: att.OwnerType, ID: id, Err: err}
	}
	return nil
}

// ClearOwner removes every attachment of an owner (optionally limited to the
// given collections) along with the stored blobs.
func (s *Service) ClearOwner(ctx context.Context, ownerType string, ownerID int64, collections ...string) error {
	deleted, err := s.repo.DeleteByOwner(ctx, ownerType, ownerID, collections...)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(deleted))
	for _, a := range deleted {
		paths = append(paths, a.StoragePath)
	}
	if err := s.store.Delete(paths); err != nil {
		return &domain.StorageError{Op: "clear", Entity: ownerType, ID: "", Err: err}
	}
	return nil
}

func (s *Service) clear(ctx context.Context, ownerType string, ownerID int64, collection string) error {
	return s.ClearOwner(ctx, ownerType, ownerID, collection)
}

// CopyOwner duplicates every attachment of srcID byte-for-byte into paths
// scoped by dstScope (typically the new owner's public identifier, since the
// internal row id may not exist yet) and returns the new metadata rows
// without inserting them: the caller persists the rows inside its own
// transaction, filling in the real owner id. The returned paths let the
// caller delete the copied blobs when that transaction fails.
func (s *Service) CopyOwner(ctx context.Context, ownerType string, srcID int64, dstScope string) ([]domain.MediaAttachment, []string, error) {
	atts, err := s.repo.ListByOwner(ctx, ownerType, srcID, "")
	if err != nil {
		return nil, nil, err
	}
	copies := make([]domain.MediaAttachment, 0, len(atts))
	paths := make([]string, 0, len(atts))
	for _, a := range atts {
		id := uuid.New().String()
		dstPath := blobPath(ownerType, dstScope, a.Collection, id, a.FileName)
		if err := s.store.Copy(a.StoragePath, dstPath); err != nil {
			s.DeleteBlobs(paths)
			return nil, nil, &domain.StorageError{Op: "copy", Entity: ownerType, ID: a.ID, Err: err}
		}
		paths = append(paths, dstPath)
		dup := a
		dup.ID = id
		dup.OwnerID = 0
		dup.StoragePath = dstPath
		copies = append(copies, dup)
	}
	return copies, paths, nil
}

// DeleteBlobs removes blobs by path; used for rollback after a failed
// multi-step operation.
func (s *Service) DeleteBlobs(paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.store.Delete(paths); err != nil {
		s.logger.Printf("media: rollback blob delete failed err=%v", err)
	}
}

// Resolve fills URL and ThumbURL on an attachment.
func (s *Service) Resolve(a *domain.MediaAttachment) {
	s.resolve(a)
}

func (s *Service) resolve(a *domain.MediaAttachment) {
	if a == nil {
		return
	}
	a.URL = s.store.PublicURL(a.StoragePath)
	if strings.HasPrefix(a.MimeType, "image/") {
		dir, file := path.Split(a.StoragePath)
		a.ThumbURL = s.store.PublicURL(dir + "thumb_" + file)
	}
}

func blobPath(ownerType, scope, collection, id, fileName string) string {
	return strings.Join([]string{
		ownerType,
		strings.ToLower(strings.TrimSpace(collection)),
		scope,
		id[:8] + "_" + sanitizeFileName(fileName),
	}, "/")
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return "file"
	}
	return sb.String()
}
