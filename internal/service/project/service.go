package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"studiosite/internal/domain"
	"studiosite/internal/media"
	"studiosite/internal/query"
	projrepo "studiosite/internal/repository/project"
	"studiosite/internal/validate"
)

// relatedLimit caps how many related projects a detail view shows.
const relatedLimit = 3

type customerResolver interface {
	GetByPublicID(ctx context.Context, publicID string) (*domain.Customer, error)
}

// Service handles portfolio projects and their media.
type Service struct {
	repo      projrepo.Repository
	customers customerResolver
	media     *media.Service
	logger    *log.Logger
}

// New creates a Service.
func New(repo projrepo.Repository, customers customerResolver, m *media.Service, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, customers: customers, media: m, logger: logger}
}

// CreateInput captures fields accepted when creating a project.
type CreateInput struct {
	CustomerID       string     `json:"customerId" validate:"required,uuid4"`
	Name             string     `json:"name" validate:"required"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"shortDescription"`
	ProductionType   string     `json:"productionType"`
	Category         string     `json:"category"`
	Status           string     `json:"status" validate:"omitempty,oneof=not_started in_progress on_hold completed cancelled"`
	Priority         string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	EstimatedHours   float64    `json:"estimatedHours" validate:"gte=0"`
	Budget           float64    `json:"budget" validate:"gte=0"`
	Technologies     []string   `json:"technologies"`
	Features         []string   `json:"features"`
	Challenges       string     `json:"challenges"`
	Solutions        string     `json:"solutions"`
	Results          string     `json:"results"`
	ClientFeedback   string     `json:"clientFeedback"`
	IsFeatured       bool       `json:"isFeatured"`
	IsPublic         *bool      `json:"isPublic"`
	MetaTitle        string     `json:"metaTitle"`
	MetaDescription  string     `json:"metaDescription"`
	LiveURL          string     `json:"liveUrl" validate:"omitempty,url"`
	GithubURL        string     `json:"githubUrl" validate:"omitempty,url"`
	FigmaURL         string     `json:"figmaUrl" validate:"omitempty,url"`
	BehanceURL       string     `json:"behanceUrl" validate:"omitempty,url"`
	DribbbleURL      string     `json:"dribbbleUrl" validate:"omitempty,url"`
}

// UpdateInput carries a partial update; nil fields stay untouched.
type UpdateInput struct {
	CustomerID       *string    `json:"customerId" validate:"omitempty,uuid4"`
	Name             *string    `json:"name" validate:"omitempty,min=1"`
	Slug             *string    `json:"slug"`
	Description      *string    `json:"description"`
	ShortDescription *string    `json:"shortDescription"`
	ProductionType   *string    `json:"productionType"`
	Category         *string    `json:"category"`
	Status           *string    `json:"status" validate:"omitempty,oneof=not_started in_progress on_hold completed cancelled"`
	Priority         *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	EstimatedHours   *float64   `json:"estimatedHours" validate:"omitempty,gte=0"`
	ActualHours      *float64   `json:"actualHours" validate:"omitempty,gte=0"`
	Budget           *float64   `json:"budget" validate:"omitempty,gte=0"`
	Technologies     []string   `json:"technologies"`
	Features         []string   `json:"features"`
	Challenges       *string    `json:"challenges"`
	Solutions        *string    `json:"solutions"`
	Results          *string    `json:"results"`
	ClientFeedback   *string    `json:"clientFeedback"`
	IsFeatured       *bool      `json:"isFeatured"`
	IsPublic         *bool      `json:"isPublic"`
	MetaTitle        *string    `json:"metaTitle"`
	MetaDescription  *string    `json:"metaDescription"`
	LiveURL          *string    `json:"liveUrl" validate:"omitempty,url"`
	GithubURL        *string    `json:"githubUrl" validate:"omitempty,url"`
	FigmaURL         *string    `json:"figmaUrl" validate:"omitempty,url"`
	BehanceURL       *string    `json:"behanceUrl" validate:"omitempty,url"`
	DribbbleURL      *string    `json:"dribbbleUrl" validate:"omitempty,url"`
}

// List returns a filtered, sorted page of projects.
func (s *Service) List(ctx context.Context, p query.Params) ([]domain.Project, query.Meta, error) {
	projects, meta, err := s.repo.List(ctx, p.Normalize(query.DefaultAdminPerPage))
	if err != nil {
		return nil, query.Meta{}, err
	}
	for i := range projects {
		if err := s.loadMedia(ctx, &projects[i], false); err != nil {
			return nil, query.Meta{}, err
		}
	}
	return projects, meta, nil
}

// ListPublic returns the public portfolio page: public projects only.
func (s *Service) ListPublic(ctx context.Context, p query.Params) ([]domain.Project, query.Meta, error) {
	if p.Filters == nil {
		p.Filters = map[string]string{}
	}
	p.Filters["public"] = "true"
	return s.List(ctx, p.Normalize(query.DefaultPublicPerPage))
}

// Get fetches one project by public identifier with poster and gallery loaded.
func (s *Service) Get(ctx context.Context, publicID string) (*domain.Project, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if err := s.loadMedia(ctx, p, true); err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug fetches a public project by its slug. Private projects are not
// addressable by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic {
		return nil, domain.ErrNotFound
	}
	if err := s.loadMedia(ctx, p, true); err != nil {
		return nil, err
	}
	return p, nil
}

// GetRelated returns up to three public projects sharing the production type
// or category, excluding the project itself.
func (s *Service) GetRelated(ctx context.Context, publicID string) ([]domain.Project, error) {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	related, err := s.repo.Related(ctx, *p, relatedLimit)
	if err != nil {
		return nil, err
	}
	for i := range related {
		if err := s.loadMedia(ctx, &related[i], false); err != nil {
			return nil, err
		}
	}
	return related, nil
}

// Create validates and persists a new project. The slug is derived from the
// name and suffixed until unique among live projects.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Project, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, domain.NewValidationError("endDate", "must not precede startDate")
	}
	owner, err := s.customers.GetByPublicID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	var slug string
	if in.Slug != "" {
		slug = Slugify(in.Slug)
		taken, err := s.repo.SlugExists(ctx, slug, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrAlreadyExists
		}
	} else {
		slug, err = s.uniqueSlug(ctx, in.Name, 0)
		if err != nil {
			return nil, err
		}
	}

	status := in.Status
	if status == "" {
		status = domain.ProjectStatusNotStarted
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	p, err := s.repo.Create(ctx, domain.Project{
		PublicID:         uuid.New().String(),
		Slug:             slug,
		CustomerID:       owner.ID,
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		ProductionType:   in.ProductionType,
		Category:         in.Category,
		Status:           status,
		Priority:         priority,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		EstimatedHours:   in.EstimatedHours,
		Budget:           in.Budget,
		Technologies:     in.Technologies,
		Features:         in.Features,
		Challenges:       in.Challenges,
		Solutions:        in.Solutions,
		Results:          in.Results,
		ClientFeedback:   in.ClientFeedback,
		IsFeatured:       in.IsFeatured,
		IsPublic:         isPublic,
		MetaTitle:        in.MetaTitle,
		MetaDescription:  in.MetaDescription,
		LiveURL:          in.LiveURL,
		GithubURL:        in.GithubURL,
		FigmaURL:         in.FigmaURL,
		BehanceURL:       in.BehanceURL,
		DribbbleURL:      in.DribbbleURL,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("project service: created id=%s slug=%s customer=%s", p.PublicID, p.Slug, in.CustomerID)
	return p, nil
}

// Update merges the supplied fields into the stored project. The slug is
// regenerated only when the name changes and no explicit slug was supplied.
func (s *Service) Update(ctx context.Context, publicID string, in UpdateInput) (*domain.Project, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		owner, err := s.customers.GetByPublicID(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		p.CustomerID = owner.ID
	}
	applyStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	nameChanged := false
	if in.Name != nil && strings.TrimSpace(*in.Name) != p.Name {
		p.Name = strings.TrimSpace(*in.Name)
		nameChanged = true
	}
	switch {
	case in.Slug != nil && *in.Slug != "":
		slug := Slugify(*in.Slug)
		if slug != p.Slug {
			taken, err := s.repo.SlugExists(ctx, slug, p.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrAlreadyExists
			}
			p.Slug = slug
		}
	case nameChanged:
		slug, err := s.uniqueSlug(ctx, p.Name, p.ID)
		if err != nil {
			return nil, err
		}
		p.Slug = slug
	}
	applyStr(&p.Description, in.Description)
	applyStr(&p.ShortDescription, in.ShortDescription)
	applyStr(&p.ProductionType, in.ProductionType)
	applyStr(&p.Category, in.Category)
	applyStr(&p.Status, in.Status)
	applyStr(&p.Priority, in.Priority)
	applyStr(&p.Challenges, in.Challenges)
	applyStr(&p.Solutions, in.Solutions)
	applyStr(&p.Results, in.Results)
	applyStr(&p.ClientFeedback, in.ClientFeedback)
	applyStr(&p.MetaTitle, in.MetaTitle)
	applyStr(&p.MetaDescription, in.MetaDescription)
	applyStr(&p.LiveURL, in.LiveURL)
	applyStr(&p.GithubURL, in.GithubURL)
	applyStr(&p.FigmaURL, in.FigmaURL)
	applyStr(&p.BehanceURL, in.BehanceURL)
	applyStr(&p.DribbbleURL, in.DribbbleURL)
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.EstimatedHours != nil {
		p.EstimatedHours = *in.EstimatedHours
	}
	if in.ActualHours != nil {
		p.ActualHours = *in.ActualHours
	}
	if in.Budget != nil {
		p.Budget = *in.Budget
	}
	if in.Technologies != nil {
		p.Technologies = in.Technologies
	}
	if in.Features != nil {
		p.Features = in.Features
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, domain.NewValidationError("endDate", "must not precede startDate")
	}

	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		return nil, err
	}
	if err := s.loadMedia(ctx, updated, true); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a project and removes its poster and gallery files.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.media.ClearOwner(ctx, domain.OwnerProject, p.ID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, p.ID); err != nil {
		return err
	}
	s.logger.Printf("project service: deleted id=%s", publicID)
	return nil
}

// UploadPoster replaces the project's poster image.
func (s *Service) UploadPoster(ctx context.Context, publicID string, up media.Upload) (*domain.MediaAttachment, error) {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return s.media.Attach(ctx, domain.OwnerProject, p.ID, domain.CollectionPoster, up)
}

// UploadGallery appends images to the project's gallery.
func (s *Service) UploadGallery(ctx context.Context, publicID string, ups []media.Upload) ([]domain.MediaAttachment, error) {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return s.media.AttachMany(ctx, domain.OwnerProject, p.ID, domain.CollectionGallery, ups)
}

// UploadDocuments appends supporting documents (briefs, contracts, press
// material) to the project.
func (s *Service) UploadDocuments(ctx context.Context, publicID string, ups []media.Upload) ([]domain.MediaAttachment, error) {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return s.media.AttachMany(ctx, domain.OwnerProject, p.ID, domain.CollectionDocuments, ups)
}

// RemoveMedia deletes a single attachment from the project.
func (s *Service) RemoveMedia(ctx context.Context, publicID, attachmentID string) error {
	p, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	atts, err := s.media.List(ctx, domain.OwnerProject, p.ID, "")
	if err != nil {
		return err
	}
	for _, a := range atts {
		if a.ID == attachmentID {
			return s.media.Remove(ctx, attachmentID)
		}
	}
	return domain.ErrNotFound
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

// Stats returns aggregate project counters.
func (s *Service) Stats(ctx context.Context) (*domain.ProjectStats, error) {
	return s.repo.Stats(ctx, time.Now())
}

func (s *Service) loadMedia(ctx context.Context, p *domain.Project, withGallery bool) error {
	poster, err := s.media.First(ctx, domain.OwnerProject, p.ID, domain.CollectionPoster)
	if err != nil {
		return err
	}
	p.Poster = poster
	if !withGallery {
		return nil
	}
	gallery, err := s.media.List(ctx, domain.OwnerProject, p.ID, domain.CollectionGallery)
	if err != nil {
		return err
	}
	p.Gallery = gallery
	return nil
}

// uniqueSlug slugifies name and probes the storage layer, appending -2, -3
// and so on until the slug is free among live projects.
func (s *Service) uniqueSlug(ctx context.Context, name string, excludeID int64) (string, error) {
	base := Slugify(name)
	slug := base
	for n := 2; ; n++ {
		taken, err := s.repo.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// Slugify lowercases, transliterates nothing, and collapses every run of
// non-alphanumerics into a single hyphen.
func Slugify(name string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "project"
	}
	return slug
}
