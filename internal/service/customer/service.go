package customer

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"studiosite/internal/domain"
	"studiosite/internal/query"
	custrepo "studiosite/internal/repository/customer"
	"studiosite/internal/validate"
)

// projectLister is the slice of the project side this service needs for the
// `projects` include.
type projectLister interface {
	List(ctx context.Context, p query.Params) ([]domain.Project, query.Meta, error)
}

// Service handles customer CRUD and aggregates.
type Service struct {
	repo     custrepo.Repository
	projects projectLister
	logger   *log.Logger
}

// New creates a Service.
func New(repo custrepo.Repository, projects projectLister, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, projects: projects, logger: logger}
}

// CreateInput captures fields accepted when creating a customer.
type CreateInput struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	JobTitle    string `json:"jobTitle" validate:"required"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Website     string `json:"website" validate:"omitempty,url"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	Notes       string `json:"notes"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive prospect"`
	AvatarURL   string `json:"avatarUrl" validate:"omitempty,url"`
}

// UpdateInput carries a partial update; nil fields stay untouched.
type UpdateInput struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1"`
	JobTitle    *string `json:"jobTitle"`
	CompanyName *string `json:"companyName"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Street      *string `json:"street"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postalCode"`
	Country     *string `json:"country"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive prospect"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

// List returns a filtered, sorted page of customers.
func (s *Service) List(ctx context.Context, p query.Params) ([]domain.Customer, query.Meta, error) {
	return s.repo.List(ctx, p.Normalize(query.DefaultAdminPerPage))
}

// Get fetches one customer by public identifier. Recognized includes:
// "projects". Unrecognized include names are dropped.
func (s *Service) Get(ctx context.Context, publicID string, includes []string) (*domain.Customer, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, domain.ErrNotFound
	}
	c, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	for _, inc := range includes {
		if inc != "projects" {
			continue
		}
		projects, _, err := s.projects.List(ctx, query.Params{
			Filters: map[string]string{"customer_id": c.PublicID},
			Page:    1,
			PerPage: query.MaxPerPage,
		})
		if err != nil {
			return nil, err
		}
		c.Projects = projects
	}
	return c, nil
}

// Create validates and persists a new customer with a fresh public identifier.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Customer, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = domain.CustomerStatusProspect
	}
	c, err := s.repo.Create(ctx, domain.Customer{
		PublicID:    uuid.New().String(),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		JobTitle:    strings.TrimSpace(in.JobTitle),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Email:       in.Email,
		Phone:       in.Phone,
		Website:     in.Website,
		Street:      in.Street,
		City:        in.City,
		State:       in.State,
		PostalCode:  in.PostalCode,
		Country:     in.Country,
		Notes:       in.Notes,
		Status:      status,
		AvatarURL:   in.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("customer service: created id=%s email=%s", c.PublicID, c.Email)
	return c, nil
}

// Update merges the supplied fields into the stored customer and persists.
// Email uniqueness is enforced by the storage layer, excluding self.
func (s *Service) Update(ctx context.Context, publicID string, in UpdateInput) (*domain.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, publicID, nil)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&c.FirstName, in.FirstName)
	apply(&c.LastName, in.LastName)
	apply(&c.JobTitle, in.JobTitle)
	apply(&c.CompanyName, in.CompanyName)
	apply(&c.Phone, in.Phone)
	apply(&c.Website, in.Website)
	apply(&c.Street, in.Street)
	apply(&c.City, in.City)
	apply(&c.State, in.State)
	apply(&c.PostalCode, in.PostalCode)
	apply(&c.Country, in.Country)
	apply(&c.Notes, in.Notes)
	apply(&c.Status, in.Status)
	apply(&c.AvatarURL, in.AvatarURL)
	if in.Email != nil {
		c.Email = strings.TrimSpace(strings.ToLower(*in.Email))
	}

	return s.repo.Update(ctx, *c)
}

// Delete soft-deletes a customer. Deletion is refused while the customer
// still owns projects.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	c, err := s.Get(ctx, publicID, nil)
	if err != nil {
		return err
	}
	n, err := s.repo.ProjectCount(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasDependents
	}
	if err := s.repo.SoftDelete(ctx, c.ID); err != nil {
		return err
	}
	s.logger.Printf("customer service: deleted id=%s", publicID)
	return nil
}

// Stats returns aggregate customer counters.
func (s *Service) Stats(ctx context.Context) (*domain.CustomerStats, error) {
	return s.repo.Stats(ctx)
}
