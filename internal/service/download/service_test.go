package download

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studiosite/internal/domain"
	"studiosite/internal/media"
	"studiosite/internal/query"
	dlrepo "studiosite/internal/repository/download"
)

type stubRepo struct {
	downloads map[string]*domain.Download
	mediaRepo *memMediaRepo
	nextID    int64
	failTx    bool
}

func newStubRepo(mediaRepo *memMediaRepo) *stubRepo {
	return &stubRepo{downloads: make(map[string]*domain.Download), mediaRepo: mediaRepo}
}

func (r *stubRepo) all() []domain.Download {
	out := make([]domain.Download, 0, len(r.downloads))
	for _, d := range r.downloads {
		out = append(out, *d)
	}
	return out
}

func (r *stubRepo) List(_ context.Context, p query.Params) ([]domain.Download, query.Meta, error) {
	public := p.BoolFilter("public")
	var out []domain.Download
	for _, d := range r.all() {
		if public != nil && d.IsPublic != *public {
			continue
		}
		out = append(out, d)
	}
	return out, query.NewMeta(int64(len(out)), p.Page, p.PerPage), nil
}

func (r *stubRepo) ListAll(_ context.Context, _ query.Params) ([]domain.Download, error) {
	return r.all(), nil
}

func (r *stubRepo) GetByUUID(_ context.Context, id string) (*domain.Download, error) {
	d, ok := r.downloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubRepo) Create(_ context.Context, d domain.Download) (*domain.Download, error) {
	r.nextID++
	d.ID = r.nextID
	r.downloads[d.UUID] = &d
	cp := d
	return &cp, nil
}

func (r *stubRepo) Update(_ context.Context, d domain.Download) (*domain.Download, error) {
	if _, ok := r.downloads[d.UUID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.downloads[d.UUID] = &d
	cp := d
	return &cp, nil
}

func (r *stubRepo) SoftDelete(_ context.Context, id int64) error {
	for uuid, d := range r.downloads {
		if d.ID == id {
			delete(r.downloads, uuid)
		}
	}
	return nil
}

func (r *stubRepo) SetSortOrder(_ context.Context, id string, sortOrder int) error {
	d, ok := r.downloads[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.SortOrder = sortOrder
	return nil
}

func (r *stubRepo) SetFileMeta(_ context.Context, id int64, fileType string, fileSize int64) error {
	for _, d := range r.downloads {
		if d.ID == id {
			d.FileType = fileType
			d.FileSize = fileSize
		}
	}
	return nil
}

func (r *stubRepo) MaxSortOrder(_ context.Context) (int, error) {
	max := 0
	for _, d := range r.downloads {
		if d.SortOrder > max {
			max = d.SortOrder
		}
	}
	return max, nil
}

func (r *stubRepo) IncrementDownloadCount(_ context.Context, id int64) (int64, error) {
	for _, d := range r.downloads {
		if d.ID == id {
			d.DownloadCount++
			return d.DownloadCount, nil
		}
	}
	return 0, domain.ErrNotFound
}

func (r *stubRepo) BulkUpdate(_ context.Context, uuids []string, fields dlrepo.BulkFields) (int64, error) {
	var n int64
	for _, id := range uuids {
		d, ok := r.downloads[id]
		if !ok {
			continue
		}
		if fields.IsFeatured != nil {
			d.IsFeatured = *fields.IsFeatured
		}
		if fields.IsPublic != nil {
			d.IsPublic = *fields.IsPublic
		}
		if fields.Brand != nil {
			d.Brand = *fields.Brand
		}
		if fields.Category != nil {
			d.Category = *fields.Category
		}
		n++
	}
	return n, nil
}

func (r *stubRepo) Stats(context.Context) (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}
	for _, d := range r.downloads {
		stats.Total++
		if d.IsPublic {
			stats.Public++
		}
		if d.IsFeatured {
			stats.Featured++
		}
		stats.TotalDownloads += d.DownloadCount
	}
	return stats, nil
}

func (r *stubRepo) DuplicateTx(ctx context.Context, d domain.Download, atts []domain.MediaAttachment) (*domain.Download, error) {
	if r.failTx {
		return nil, errors.New("tx rolled back")
	}
	out, err := r.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	for _, a := range atts {
		a.OwnerID = out.ID
		if _, err := r.mediaRepo.Insert(ctx, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type memMediaRepo struct {
	rows map[string]domain.MediaAttachment
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{rows: make(map[string]domain.MediaAttachment)}
}

func (m *memMediaRepo) Insert(_ context.Context, a domain.MediaAttachment) (*domain.MediaAttachment, error) {
	m.rows[a.ID] = a
	cp := a
	return &cp, nil
}

func (m *memMediaRepo) ListByOwner(_ context.Context, ownerType string, ownerID int64, collection string) ([]domain.MediaAttachment, error) {
	var out []domain.MediaAttachment
	for _, a := range m.rows {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && (collection == "" || a.Collection == collection) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memMediaRepo) Get(_ context.Context, id string) (*domain.MediaAttachment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *memMediaRepo) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func (m *memMediaRepo) DeleteByOwner(_ context.Context, ownerType string, ownerID int64, collections ...string) ([]domain.MediaAttachment, error) {
	var deleted []domain.MediaAttachment
	for id, a := range m.rows {
		if a.OwnerType != ownerType || a.OwnerID != ownerID {
			continue
		}
		if len(collections) > 0 {
			match := false
			for _, c := range collections {
				if a.Collection == c {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		deleted = append(deleted, a)
		delete(m.rows, id)
	}
	return deleted, nil
}

func (m *memMediaRepo) MaxSortOrder(_ context.Context, ownerType string, ownerID int64, collection string) (int, error) {
	max := 0
	for _, a := range m.rows {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && a.Collection == collection && a.SortOrder > max {
			max = a.SortOrder
		}
	}
	return max, nil
}

func newTestService(t *testing.T) (*Service, *stubRepo, *media.MemoryStore) {
	t.Helper()
	mediaRepo := newMemMediaRepo()
	store := media.NewMemoryStore("http://files.test")
	repo := newStubRepo(mediaRepo)
	return New(repo, media.New(mediaRepo, store, nil), nil), repo, store
}

func seed(t *testing.T, svc *Service, withFile bool) *domain.Download {
	t.Helper()
	ctx := context.Background()
	d, err := svc.Create(ctx, CreateInput{Title: "Logo Pack", Brand: "Acme", Category: "logos"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if withFile {
		if _, err := svc.UploadFile(ctx, d.UUID, media.Upload{
			FileName: "logo-pack.zip",
			MimeType: "application/zip",
			Data:     []byte("zip-bytes"),
		}); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}
	}
	out, err := svc.Get(ctx, d.UUID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return out
}

func TestUploadFileSetsMeta(t *testing.T) {
	svc, _, _ := newTestService(t)
	d := seed(t, svc, true)

	if d.FileType != "zip" {
		t.Errorf("file type = %q, want zip", d.FileType)
	}
	if d.FileSize != int64(len("zip-bytes")) {
		t.Errorf("file size = %d", d.FileSize)
	}
	if d.File == nil || d.File.URL == "" {
		t.Errorf("file attachment not loaded: %+v", d.File)
	}
}

func TestListPublicExcludesPrivateDownloads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seed(t, svc, false)
	hidden := false
	if _, err := svc.Create(ctx, CreateInput{Title: "Internal Kit", IsPublic: &hidden}); err != nil {
		t.Fatalf("Create private: %v", err)
	}

	out, _, err := svc.ListPublic(ctx, query.Params{})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(out) != 1 || !out[0].IsPublic {
		t.Fatalf("ListPublic = %d downloads, want only the public one", len(out))
	}
}

func TestProcessDownloadIncrementsCounter(t *testing.T) {
	svc, _, _ := newTestService(t)
	d := seed(t, svc, true)
	ctx := context.Background()

	url, count, err := svc.ProcessDownload(ctx, d.UUID)
	if err != nil {
		t.Fatalf("ProcessDownload: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if !strings.Contains(url, "logo-pack.zip") {
		t.Errorf("url = %q", url)
	}
	for i := 0; i < 4; i++ {
		if _, count, err = svc.ProcessDownload(ctx, d.UUID); err != nil {
			t.Fatalf("ProcessDownload #%d: %v", i+2, err)
		}
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestProcessDownloadWithoutFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	d := seed(t, svc, false)

	_, _, err := svc.ProcessDownload(context.Background(), d.UUID)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if got, err := svc.Get(context.Background(), d.UUID); err != nil || got.DownloadCount != 0 {
		t.Errorf("counter moved on failed download: %v %d", err, got.DownloadCount)
	}
}

func TestDuplicateIsIndependent(t *testing.T) {
	svc, _, store := newTestService(t)
	d := seed(t, svc, true)
	ctx := context.Background()

	if _, _, err := svc.ProcessDownload(ctx, d.UUID); err != nil {
		t.Fatalf("ProcessDownload: %v", err)
	}

	dup, err := svc.Duplicate(ctx, d.UUID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if dup.UUID == d.UUID {
		t.Errorf("duplicate shares uuid")
	}
	if dup.Title != "Logo Pack (Copy)" {
		t.Errorf("title = %q", dup.Title)
	}
	if dup.DownloadCount != 0 {
		t.Errorf("duplicate inherited counter: %d", dup.DownloadCount)
	}
	if dup.SortOrder <= d.SortOrder {
		t.Errorf("duplicate sort order %d not after original %d", dup.SortOrder, d.SortOrder)
	}
	if dup.File == nil {
		t.Fatalf("duplicate lost file attachment")
	}

	// Deleting the original must not take the duplicate's blob with it.
	if err := svc.Delete(ctx, d.UUID); err != nil {
		t.Fatalf("Delete original: %v", err)
	}
	got, err := svc.Get(ctx, dup.UUID)
	if err != nil {
		t.Fatalf("Get duplicate after original delete: %v", err)
	}
	if got.File == nil {
		t.Fatalf("duplicate file gone after original delete")
	}
	if _, ok := store.Get(got.File.StoragePath); !ok {
		t.Errorf("duplicate blob missing: %s", got.File.StoragePath)
	}
}

func TestDuplicateRollsBackBlobsOnTxFailure(t *testing.T) {
	svc, repo, store := newTestService(t)
	d := seed(t, svc, true)

	before := len(store.Paths())
	repo.failTx = true
	if _, err := svc.Duplicate(context.Background(), d.UUID); err == nil {
		t.Fatal("expected duplicate failure")
	}
	if got := len(store.Paths()); got != before {
		t.Errorf("copied blobs left behind: %d, want %d", got, before)
	}
	if len(repo.downloads) != 1 {
		t.Errorf("duplicate row persisted despite failure")
	}
}

func TestBulkUpdateAndDelete(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()
	a := seed(t, svc, true)
	b := seed(t, svc, false)

	featured := true
	n, err := svc.BulkUpdate(ctx, []string{a.UUID, b.UUID, "7c1d2e30-0000-4000-8000-000000000000"}, dlrepo.BulkFields{IsFeatured: &featured})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if n != 2 {
		t.Errorf("updated = %d, want 2", n)
	}

	n, err = svc.BulkDelete(ctx, []string{a.UUID, b.UUID})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if len(store.Paths()) != 0 {
		t.Errorf("blobs remain after bulk delete: %v", store.Paths())
	}
}

func TestBulkRequiresIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.BulkDelete(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty id list")
	}
	if _, err := svc.BulkUpdate(context.Background(), nil, dlrepo.BulkFields{}); err == nil {
		t.Fatal("expected error for empty id list")
	}
}
