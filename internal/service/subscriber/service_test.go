package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

type stubRepo struct {
	byEmail map[string]*domain.Subscriber
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: make(map[string]*domain.Subscriber)}
}

func (r *stubRepo) List(_ context.Context, _ query.Params) ([]domain.Subscriber, query.Meta, error) {
	out := make([]domain.Subscriber, 0, len(r.byEmail))
	for _, s := range r.byEmail {
		out = append(out, *s)
	}
	return out, query.NewMeta(int64(len(out)), 1, query.DefaultAdminPerPage), nil
}

func (r *stubRepo) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	s, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubRepo) Create(_ context.Context, s domain.Subscriber) (*domain.Subscriber, error) {
	if _, ok := r.byEmail[s.Email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	s.ID = r.nextID
	r.byEmail[s.Email] = &s
	cp := s
	return &cp, nil
}

func (r *stubRepo) Update(_ context.Context, s domain.Subscriber) (*domain.Subscriber, error) {
	if _, ok := r.byEmail[s.Email]; !ok {
		return nil, domain.ErrNotFound
	}
	r.byEmail[s.Email] = &s
	cp := s
	return &cp, nil
}

func (r *stubRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, s := range r.byEmail {
		counts[s.Status]++
	}
	return counts, nil
}

func TestSubscribeConfirmFlow(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: " Pat@Example.COM ", Source: "footer"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Status != domain.SubscriberPending {
		t.Errorf("status = %q, want pending", sub.Status)
	}
	if sub.Email != "pat@example.com" {
		t.Errorf("email = %q", sub.Email)
	}
	if sub.VerificationToken == "" {
		t.Fatal("no verification token issued")
	}
	if sub.Subscribed {
		t.Errorf("subscribed before confirmation")
	}

	got, err := svc.Confirm(ctx, sub.Email, sub.VerificationToken)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got.Status != domain.SubscriberActive || !got.Subscribed {
		t.Errorf("status = %q subscribed = %v", got.Status, got.Subscribed)
	}
	if got.VerificationToken != "" {
		t.Errorf("token not cleared on confirm")
	}
	if got.SubscribedAt == nil || got.VerifiedAt == nil {
		t.Errorf("timestamps not set: %+v", got)
	}
}

func TestConfirmRequiresMatchingToken(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := svc.Confirm(ctx, sub.Email, "wrong-token"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for wrong token, got %v", err)
	}
	if _, err := svc.Confirm(ctx, "other@example.com", sub.VerificationToken); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for wrong email, got %v", err)
	}
	if _, err := svc.Confirm(ctx, sub.Email, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for empty token, got %v", err)
	}
}

func TestSubscribeExistingActive(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("pending resubscribe: want ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.Confirm(ctx, sub.Email, sub.VerificationToken); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("active resubscribe: want ErrAlreadyExists, got %v", err)
	}
}

func TestUnsubscribeAndResubscribe(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := svc.Confirm(ctx, sub.Email, sub.VerificationToken); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if err := svc.Unsubscribe(ctx, sub.Email); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	got := repo.byEmail[sub.Email]
	if got.Status != domain.SubscriberUnsubscribed || got.Subscribed {
		t.Errorf("status = %q subscribed = %v", got.Status, got.Subscribed)
	}
	if got.UnsubscribedAt == nil {
		t.Errorf("UnsubscribedAt not set")
	}

	// Quiet no-ops.
	if err := svc.Unsubscribe(ctx, sub.Email); err != nil {
		t.Fatalf("repeat Unsubscribe: %v", err)
	}
	if err := svc.Unsubscribe(ctx, "unknown@example.com"); err != nil {
		t.Fatalf("unknown Unsubscribe: %v", err)
	}

	// Unsubscribed addresses may opt back in, restarting the flow.
	again, err := svc.Subscribe(ctx, SubscribeInput{Email: sub.Email})
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if again.Status != domain.SubscriberPending || again.VerificationToken == "" {
		t.Errorf("resubscribe status = %q token = %q", again.Status, again.VerificationToken)
	}
	if again.VerificationToken == sub.VerificationToken {
		t.Errorf("token reused across signups")
	}
}

func TestMarkBounced(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := svc.Confirm(ctx, sub.Email, sub.VerificationToken); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := svc.MarkBounced(ctx, sub.Email); err != nil {
		t.Fatalf("MarkBounced: %v", err)
	}
	got := repo.byEmail[sub.Email]
	if got.Status != domain.SubscriberBounced || got.Subscribed {
		t.Errorf("status = %q subscribed = %v", got.Status, got.Subscribed)
	}
}

func TestMarkBouncedRequiresActive(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, SubscribeInput{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	var verr *domain.ValidationError
	if err := svc.MarkBounced(ctx, sub.Email); !errors.As(err, &verr) {
		t.Fatalf("pending subscriber marked bounced: %v", err)
	}
	if got := repo.byEmail[sub.Email]; got.Status != domain.SubscriberPending {
		t.Errorf("status = %q, want pending untouched", got.Status)
	}

	if _, err := svc.Confirm(ctx, sub.Email, sub.VerificationToken); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := svc.Unsubscribe(ctx, sub.Email); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := svc.MarkComplained(ctx, sub.Email); !errors.As(err, &verr) {
		t.Fatalf("unsubscribed address marked complained: %v", err)
	}
}
