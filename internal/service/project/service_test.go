package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"studiosite/internal/domain"
	"studiosite/internal/media"
	"studiosite/internal/query"
)

type stubRepo struct {
	projects map[string]*domain.Project
	nextID   int64
	deleted  []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{projects: make(map[string]*domain.Project)}
}

func (r *stubRepo) List(_ context.Context, p query.Params) ([]domain.Project, query.Meta, error) {
	out := make([]domain.Project, 0, len(r.projects))
	public := p.BoolFilter("public")
	for _, pr := range r.projects {
		if public != nil && pr.IsPublic != *public {
			continue
		}
		out = append(out, *pr)
	}
	return out, query.NewMeta(int64(len(out)), p.Page, p.PerPage), nil
}

func (r *stubRepo) GetByPublicID(_ context.Context, publicID string) (*domain.Project, error) {
	p, ok := r.projects[publicID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) GetBySlug(_ context.Context, slug string) (*domain.Project, error) {
	for _, p := range r.projects {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) Create(_ context.Context, p domain.Project) (*domain.Project, error) {
	r.nextID++
	p.ID = r.nextID
	r.projects[p.PublicID] = &p
	cp := p
	return &cp, nil
}

func (r *stubRepo) Update(_ context.Context, p domain.Project) (*domain.Project, error) {
	if _, ok := r.projects[p.PublicID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.projects[p.PublicID] = &p
	cp := p
	return &cp, nil
}

func (r *stubRepo) SoftDelete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	for pid, p := range r.projects {
		if p.ID == id {
			delete(r.projects, pid)
		}
	}
	return nil
}

func (r *stubRepo) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	for _, p := range r.projects {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) SetSortOrder(_ context.Context, publicID string, sortOrder int) error {
	p, ok := r.projects[publicID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SortOrder = sortOrder
	return nil
}

func (r *stubRepo) Stats(_ context.Context, _ time.Time) (*domain.ProjectStats, error) {
	return &domain.ProjectStats{Total: int64(len(r.projects))}, nil
}

func (r *stubRepo) Related(_ context.Context, p domain.Project, limit int) ([]domain.Project, error) {
	var out []domain.Project
	for _, other := range r.projects {
		if other.ID == p.ID || !other.IsPublic {
			continue
		}
		if other.ProductionType == p.ProductionType || other.Category == p.Category {
			out = append(out, *other)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubCustomers struct {
	byPublicID map[string]*domain.Customer
}

func (c *stubCustomers) GetByPublicID(_ context.Context, publicID string) (*domain.Customer, error) {
	cust, ok := c.byPublicID[publicID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cust, nil
}

type memMediaRepo struct {
	rows   map[string]domain.MediaAttachment
	nextID int
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

func newTestService(t *testing.T) (*Service, *stubRepo, *stubCustomers, *media.MemoryStore) {
	t.Helper()
	repo := newStubRepo()
	customers := &stubCustomers{byPublicID: map[string]*domain.Customer{
		"9f0c1b34-6f7d-4a68-9c55-2f1e8b6a0d11": {ID: 7, PublicID: "9f0c1b34-6f7d-4a68-9c55-2f1e8b6a0d11", FirstName: "Ada"},
	}}
	store := media.NewMemoryStore("http://files.test")
	m := media.New(newMemMediaRepo(), store, nil)
	return New(repo, customers, m, nil), repo, customers, store
}

func validInput() CreateInput {
	return CreateInput{
		CustomerID: "9f0c1b34-6f7d-4a68-9c55-2f1e8b6a0d11",
		Name:       "Brand Refresh",
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	p, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != domain.ProjectStatusNotStarted {
		t.Errorf("status = %q, want not_started", p.Status)
	}
	if p.Priority != domain.PriorityMedium {
		t.Errorf("priority = %q, want medium", p.Priority)
	}
	if !p.IsPublic {
		t.Errorf("new project should default to public")
	}
	if p.Slug != "brand-refresh" {
		t.Errorf("slug = %q, want brand-refresh", p.Slug)
	}
	if p.CustomerID != 7 {
		t.Errorf("customer id = %d, want 7", p.CustomerID)
	}
}

func TestCreateSlugCollision(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	third, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("third Create: %v", err)
	}
	if first.Slug != "brand-refresh" || second.Slug != "brand-refresh-2" || third.Slug != "brand-refresh-3" {
		t.Errorf("slugs = %q, %q, %q", first.Slug, second.Slug, third.Slug)
	}
}

func TestCreateUnknownCustomer(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	in := validInput()
	in.CustomerID = "5a3f9d20-0000-4000-8000-000000000000"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -5)
	in := validInput()
	in.StartDate = &start
	in.EndDate = &end
	var verr *domain.ValidationError
	if _, err := svc.Create(context.Background(), in); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestUpdateRegeneratesSlugOnRename(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	name := "Completely Different Name"
	got, err := svc.Update(ctx, p.PublicID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != "completely-different-name" {
		t.Errorf("slug = %q, want regenerated from the new name", got.Slug)
	}
	if got.Name != name {
		t.Errorf("name = %q, want %q", got.Name, name)
	}
}

func TestUpdateExplicitSlugWins(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	name := "Renamed Again"
	slug := "Keep This URL"
	got, err := svc.Update(ctx, p.PublicID, UpdateInput{Name: &name, Slug: &slug})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != "keep-this-url" {
		t.Errorf("slug = %q, want the supplied slug, slugified", got.Slug)
	}
}

func TestUpdateSlugUntouchedWithoutRename(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	desc := "now with a description"
	got, err := svc.Update(ctx, p.PublicID, UpdateInput{Description: &desc})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != p.Slug {
		t.Errorf("slug changed without a rename: %q -> %q", p.Slug, got.Slug)
	}
}

func TestUpdateSlugConflictRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	in := validInput()
	in.Name = "Second Project"
	second, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	slug := first.Slug
	if _, err := svc.Update(ctx, second.PublicID, UpdateInput{Slug: &slug}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}

func TestGetBySlugHidesPrivate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	hidden := false
	in := validInput()
	in.IsPublic = &hidden
	p, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetBySlug(ctx, p.Slug); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("private project reachable by slug: %v", err)
	}
	if _, err := svc.Get(ctx, p.PublicID); err != nil {
		t.Fatalf("admin Get should still work: %v", err)
	}
}

func TestListPublicExcludesPrivateProjects(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("Create public: %v", err)
	}
	hidden := false
	in := validInput()
	in.Name = "Internal Rebrand"
	in.IsPublic = &hidden
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create private: %v", err)
	}

	out, _, err := svc.ListPublic(ctx, query.Params{})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(out) != 1 || !out[0].IsPublic {
		t.Fatalf("ListPublic = %d projects, want only the public one", len(out))
	}
}

func TestReorderReportsUnknownIDs(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := svc.Reorder(ctx, []domain.ReorderItem{
		{PublicID: p.PublicID, SortOrder: 5},
		{PublicID: "2b6f8a10-0000-4000-8000-000000000000", SortOrder: 1},
	})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("updated = %d, want 1", res.Updated)
	}
	if _, ok := res.Errors["2b6f8a10-0000-4000-8000-000000000000"]; !ok {
		t.Errorf("missing per-item error: %v", res.Errors)
	}
	if repo.projects[p.PublicID].SortOrder != 5 {
		t.Errorf("sort order not applied")
	}
}

func TestDeleteClearsMedia(t *testing.T) {
	svc, repo, _, store := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UploadPoster(ctx, p.PublicID, media.Upload{
		FileName: "poster.png",
		MimeType: "image/png",
		Data:     []byte("png-bytes"),
	}); err != nil {
		t.Fatalf("UploadPoster: %v", err)
	}
	if len(store.Paths()) != 1 {
		t.Fatalf("blob count = %d, want 1", len(store.Paths()))
	}

	if err := svc.Delete(ctx, p.PublicID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.Paths()) != 0 {
		t.Errorf("blobs remain after delete: %v", store.Paths())
	}
	if len(repo.deleted) != 1 {
		t.Errorf("project row not soft-deleted")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Brand Refresh":       "brand-refresh",
		"  Hello,   World!  ": "hello-world",
		"Déjà Vu 2.0":         "déjà-vu-2-0",
		"---":                 "project",
		"MiXeD CaSe_under":    "mixed-case-under",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
