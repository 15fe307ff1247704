package quote

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"studiosite/internal/domain"
	"studiosite/internal/media"
	"studiosite/internal/notify"
	"studiosite/internal/query"
	quoterepo "studiosite/internal/repository/quote"
	"studiosite/internal/validate"
)

// maxAttachments caps the number of files a quote request may carry.
const maxAttachments = 5

// Service handles the public quote funnel and its admin triage side.
type Service struct {
	repo     quoterepo.Repository
	media    *media.Service
	notifier notify.Notifier
	logger   *log.Logger
}

// New creates a Service.
func New(repo quoterepo.Repository, m *media.Service, notifier notify.Notifier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger}
	}
	return &Service{repo: repo, media: m, notifier: notifier, logger: logger}
}

// SubmitInput is a quote request from the public site.
type SubmitInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	ProjectType string `json:"projectType" validate:"required"`
	BudgetRange string `json:"budgetRange" validate:"required"`
	Timeline    string `json:"timeline" validate:"required"`
	Description string `json:"description" validate:"required,min=10"`
	Goals       string `json:"goals"`
	Files       []media.Upload
}

// List returns a filtered, sorted page of quotes for the admin area.
func (s *Service) List(ctx context.Context, p query.Params) ([]domain.Quote, query.Meta, error) {
	quotes, meta, err := s.repo.List(ctx, p.Normalize(query.DefaultAdminPerPage))
	if err != nil {
		return nil, query.Meta{}, err
	}
	for i := range quotes {
		if err := s.loadFiles(ctx, &quotes[i]); err != nil {
			return nil, query.Meta{}, err
		}
	}
	return quotes, meta, nil
}

// Get fetches one quote with its attached files.
func (s *Service) Get(ctx context.Context, publicID string) (*domain.Quote, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, domain.ErrNotFound
	}
	q, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if err := s.loadFiles(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Submit validates and persists a quote request, stores any attached files
// and notifies the operator. A failed notification never loses the request;
// the quote is kept with the notified flag down for later follow-up.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Quote, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !domain.ValidQuoteProjectType(in.ProjectType) {
		return nil, domain.NewValidationError("projectType", "must be one of "+strings.Join(domain.QuoteProjectTypes, ", "))
	}
	if !domain.ValidQuoteBudgetRange(in.BudgetRange) {
		return nil, domain.NewValidationError("budgetRange", "must be one of "+strings.Join(domain.QuoteBudgetRanges, ", "))
	}
	if !domain.ValidQuoteTimeline(in.Timeline) {
		return nil, domain.NewValidationError("timeline", "must be one of "+strings.Join(domain.QuoteTimelines, ", "))
	}
	if len(in.Files) > maxAttachments {
		return nil, domain.NewValidationError("files", "at most 5 files may be attached")
	}
	for _, up := range in.Files {
		if err := media.ValidateUpload(domain.CollectionFiles, up); err != nil {
			return nil, err
		}
	}

	q, err := s.repo.Create(ctx, domain.Quote{
		PublicID:    uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Phone:       in.Phone,
		Company:     in.Company,
		ProjectType: in.ProjectType,
		BudgetRange: in.BudgetRange,
		Timeline:    in.Timeline,
		Description: in.Description,
		Goals:       in.Goals,
		Status:      domain.QuotePending,
	})
	if err != nil {
		return nil, err
	}

	if len(in.Files) > 0 {
		files, err := s.media.AttachMany(ctx, domain.OwnerQuote, q.ID, domain.CollectionFiles, in.Files)
		if err != nil {
			return nil, err
		}
		q.Files = files
	}

	if err := s.notifier.QuoteReceived(*q); err != nil {
		s.logger.Printf("quote service: notification failed id=%s err=%v", q.PublicID, err)
	} else if err := s.repo.SetNotified(ctx, q.ID, true); err != nil {
		s.logger.Printf("quote service: set notified id=%s err=%v", q.PublicID, err)
	} else {
		q.Notified = true
	}

	s.logger.Printf("quote service: submitted id=%s email=%s files=%d", q.PublicID, q.Email, len(q.Files))
	return q, nil
}

// UpdateStatus moves a quote through triage and records admin notes.
func (s *Service) UpdateStatus(ctx context.Context, publicID, status, adminNotes string) (*domain.Quote, error) {
	if !domain.ValidQuoteStatus(status) {
		return nil, domain.NewValidationError("status", "must be one of "+strings.Join(domain.QuoteStatuses, ", "))
	}
	q, err := s.repo.UpdateStatus(ctx, publicID, status, adminNotes)
	if err != nil {
		return nil, err
	}
	if err := s.loadFiles(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Stats returns quote counts per workflow state.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) loadFiles(ctx context.Context, q *domain.Quote) error {
	files, err := s.media.List(ctx, domain.OwnerQuote, q.ID, domain.CollectionFiles)
	if err != nil {
		return err
	}
	q.Files = files
	return nil
}
