package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/domain"
)

type memRepo struct {
	rows map[string]domain.MediaAttachment
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]domain.MediaAttachment{}}
}

func (r *memRepo) Insert(_ context.Context, a domain.MediaAttachment) (*domain.MediaAttachment, error) {
	r.rows[a.ID] = a
	out := a
	return &out, nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerType string, ownerID int64, collection string) ([]domain.MediaAttachment, error) {
	var out []domain.MediaAttachment
	for _, a := range r.rows {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && (collection == "" || a.Collection == collection) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id string) (*domain.MediaAttachment, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) DeleteByOwner(_ context.Context, ownerType string, ownerID int64, collections ...string) ([]domain.MediaAttachment, error) {
	match := func(c string) bool {
		if len(collections) == 0 {
			return true
		}
		for _, want := range collections {
			if want == c {
				return true
			}
		}
		return false
	}
	var deleted []domain.MediaAttachment
	for id, a := range r.rows {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && match(a.Collection) {
			deleted = append(deleted, a)
			delete(r.rows, id)
		}
	}
	return deleted, nil
}

func (r *memRepo) MaxSortOrder(_ context.Context, ownerType string, ownerID int64, collection string) (int, error) {
	max := 0
	for _, a := range r.rows {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && a.Collection == collection && a.SortOrder > max {
			max = a.SortOrder
		}
	}
	return max, nil
}

func newTestService() (*Service, *memRepo, *MemoryStore) {
	repo := newMemRepo()
	store := NewMemoryStore("http://files.test")
	return New(repo, store, nil), repo, store
}

func TestAttachAssignsSortOrderAndURL(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Attach(ctx, domain.OwnerProject, 1, domain.CollectionGallery, Upload{
		FileName: "Shot One.png", MimeType: "image/png", Data: []byte("aaa"),
	})
	require.NoError(t, err)
	second, err := svc.Attach(ctx, domain.OwnerProject, 1, domain.CollectionGallery, Upload{
		FileName: "shot2.png", MimeType: "image/png", Data: []byte("bbb"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	assert.Contains(t, first.URL, "http://files.test/project/gallery/1/")
	assert.Contains(t, first.URL, "shot-one.png")
	assert.Contains(t, first.ThumbURL, "thumb_")
}

func TestAttachRejectsOversizeAndWrongType(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Attach(ctx, domain.OwnerProject, 1, domain.CollectionGallery, Upload{
		FileName: "movie.mp4", MimeType: "video/mp4", Data: []byte("x"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "file")

	big := make([]byte, maxImageBytes+1)
	_, err = svc.Attach(ctx, domain.OwnerProject, 1, domain.CollectionGallery, Upload{
		FileName: "huge.png", MimeType: "image/png", Data: big,
	})
	require.ErrorAs(t, err, &verr)
}

func TestSingleCollectionReplaces(t *testing.T) {
	svc, repo, store := newTestService()
	ctx := context.Background()

	old, err := svc.Attach(ctx, domain.OwnerProject, 7, domain.CollectionPoster, Upload{
		FileName: "old.png", MimeType: "image/png", Data: []byte("old"),
	})
	require.NoError(t, err)

	neu, err := svc.Attach(ctx, domain.OwnerProject, 7, domain.CollectionPoster, Upload{
		FileName: "new.png", MimeType: "image/png", Data: []byte("new"),
	})
	require.NoError(t, err)

	_, gone := store.Get(old.StoragePath)
	assert.False(t, gone, "replaced blob should be deleted")
	_, ok := store.Get(neu.StoragePath)
	assert.True(t, ok)
	atts, err := repo.ListByOwner(ctx, domain.OwnerProject, 7, domain.CollectionPoster)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "new.png", atts[0].FileName)
}

func TestCopyOwnerIsIndependent(t *testing.T) {
	svc, _, store := newTestService()
	ctx := context.Background()

	src, err := svc.Attach(ctx, domain.OwnerDownload, 10, domain.CollectionFile, Upload{
		FileName: "brochure.pdf", MimeType: "application/pdf", Data: []byte("payload"),
	})
	require.NoError(t, err)

	copies, paths, err := svc.CopyOwner(ctx, domain.OwnerDownload, 10, "copy-target")
	require.NoError(t, err)
	require.Len(t, copies, 1)
	require.Len(t, paths, 1)
	assert.NotEqual(t, src.ID, copies[0].ID)
	assert.Contains(t, copies[0].StoragePath, "copy-target")

	// Deleting the original blob must not affect the copy.
	require.NoError(t, store.Delete([]string{src.StoragePath}))
	data, ok := store.Get(copies[0].StoragePath)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
}

func TestRemoveDeletesRowAndBlob(t *testing.T) {
	svc, repo, store := newTestService()
	ctx := context.Background()

	att, err := svc.Attach(ctx, domain.OwnerQuote, 3, domain.CollectionFiles, Upload{
		FileName: "brief.pdf", MimeType: "application/pdf", Data: []byte("brief"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, att.ID))
	_, err = repo.Get(ctx, att.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, ok := store.Get(att.StoragePath)
	assert.False(t, ok)
}
