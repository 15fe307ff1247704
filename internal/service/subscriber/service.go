package subscriber

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"studiosite/internal/domain"
	"studiosite/internal/query"
	subrepo "studiosite/internal/repository/subscriber"
	"studiosite/internal/validate"
)

// Service manages the newsletter double opt-in lifecycle.
type Service struct {
	repo   subrepo.Repository
	logger *log.Logger
	now    func() time.Time
}

// New creates a Service.
func New(repo subrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SubscribeInput is a signup from the public site.
type SubscribeInput struct {
	Email       string                       `json:"email" validate:"required,email"`
	Name        string                       `json:"name"`
	Source      string                       `json:"source"`
	IPAddress   string                       `json:"-"`
	UserAgent   string                       `json:"-"`
	Preferences domain.SubscriberPreferences `json:"preferences"`
}

// List returns a filtered, sorted page of subscribers for the admin area.
func (s *Service) List(ctx context.Context, p query.Params) ([]domain.Subscriber, query.Meta, error) {
	return s.repo.List(ctx, p.Normalize(query.DefaultAdminPerPage))
}

// Subscribe registers an email as pending and hands back the verification
// token for the opt-in mail. A previously unsubscribed or bounced address
// re-enters the pending state with a fresh token; an address that is already
// pending or active is rejected.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*domain.Subscriber, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if existing.Status == domain.SubscriberPending || existing.Status == domain.SubscriberActive {
			return nil, domain.ErrAlreadyExists
		}
		existing.Status = domain.SubscriberPending
		existing.Subscribed = false
		existing.VerificationToken = token
		existing.Name = in.Name
		existing.Source = in.Source
		existing.IPAddress = in.IPAddress
		existing.UserAgent = in.UserAgent
		existing.Preferences = in.Preferences
		existing.SubscribedAt = nil
		existing.UnsubscribedAt = nil
		existing.VerifiedAt = nil
		sub, err := s.repo.Update(ctx, *existing)
		if err != nil {
			return nil, err
		}
		s.logger.Printf("subscriber service: re-subscribed email=%s", sub.Email)
		return sub, nil
	case errors.Is(err, domain.ErrNotFound):
		sub, err := s.repo.Create(ctx, domain.Subscriber{
			Email:             in.Email,
			Name:              in.Name,
			Status:            domain.SubscriberPending,
			VerificationToken: token,
			Source:            in.Source,
			IPAddress:         in.IPAddress,
			UserAgent:         in.UserAgent,
			Preferences:       in.Preferences,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Printf("subscriber service: subscribed email=%s source=%s", sub.Email, sub.Source)
		return sub, nil
	default:
		return nil, err
	}
}

// Confirm completes the double opt-in. Both the email and the token must
// match a pending subscriber.
func (s *Service) Confirm(ctx context.Context, email, token string) (*domain.Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.SubscriberPending || token == "" || sub.VerificationToken != token {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	sub.Status = domain.SubscriberActive
	sub.Subscribed = true
	sub.VerificationToken = ""
	sub.SubscribedAt = &now
	sub.VerifiedAt = &now
	out, err := s.repo.Update(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("subscriber service: confirmed email=%s", email)
	return out, nil
}

// Unsubscribe opts an address out. Unsubscribing an unknown or already
// unsubscribed address succeeds quietly.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	sub, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.Status == domain.SubscriberUnsubscribed {
		return nil
	}
	now := s.now()
	sub.Status = domain.SubscriberUnsubscribed
	sub.Subscribed = false
	sub.VerificationToken = ""
	sub.UnsubscribedAt = &now
	if _, err := s.repo.Update(ctx, *sub); err != nil {
		return err
	}
	s.logger.Printf("subscriber service: unsubscribed email=%s", email)
	return nil
}

// MarkBounced flags an address after a hard delivery failure.
func (s *Service) MarkBounced(ctx context.Context, email string) error {
	return s.mark(ctx, email, domain.SubscriberBounced)
}

// MarkComplained flags an address after a spam complaint.
func (s *Service) MarkComplained(ctx context.Context, email string) error {
	return s.mark(ctx, email, domain.SubscriberComplained)
}

// mark moves an active subscription into a delivery-failure state. Only
// active rows qualify; pending or opted-out addresses are left alone.
func (s *Service) mark(ctx context.Context, email, status string) error {
	sub, err := s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return err
	}
	if sub.Status != domain.SubscriberActive {
		return domain.NewValidationError("status", "only active subscriptions can be marked "+status)
	}
	sub.Status = status
	sub.Subscribed = false
	sub.VerificationToken = ""
	_, err = s.repo.Update(ctx, *sub)
	return err
}

// Stats returns subscriber counts per lifecycle state.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
