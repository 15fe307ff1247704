package auth

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

	"golang.org/x/crypto/bcrypt"

	"studiosite/internal/domain"
	tokenrepo "studiosite/internal/repository/token"
	userrepo "studiosite/internal/repository/user"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login endpoint never reveals which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTokenExpired marks a session token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// DefaultTokenTTL is how long an admin session stays valid.
const DefaultTokenTTL = 24 * time.Hour

const tokenCreateRetries = 5

// Service authenticates operators with opaque database-backed tokens.
type Service struct {
	users  userrepo.Repository
	tokens tokenrepo.Repository
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

// New creates a Service.
func New(users userrepo.Repository, tokens tokenrepo.Repository, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{users: users, tokens: tokens, ttl: ttl, logger: logger, now: time.Now}
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Login checks the password and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.logger.Printf("auth service: failed login email=%s", email)
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.ttl)
	tok, err := s.createToken(ctx, u.ID, expiresAt)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("auth service: login email=%s", email)
	return &Session{Token: tok, ExpiresAt: expiresAt, User: u}, nil
}

// Lookup resolves a session token to its operator. Expired tokens are
// deleted on sight.
func (s *Service) Lookup(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	t, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().After(t.ExpiresAt) {
		if derr := s.tokens.Delete(ctx, token); derr != nil {
			s.logger.Printf("auth service: expired token delete err=%v", derr)
		}
		return nil, ErrTokenExpired
	}
	return s.users.GetByID(ctx, t.UserID)
}

// Logout revokes a session token. Revoking an unknown token succeeds quietly.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.tokens.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// createToken retries on the vanishingly unlikely collision of two random
// tokens.
func (s *Service) createToken(ctx context.Context, userID int64, expiresAt time.Time) (string, error) {
	for i := 0; i < tokenCreateRetries; i++ {
		tok, err := newToken()
		if err != nil {
			return "", err
		}
		err = s.tokens.Create(ctx, tokenrepo.Token{Token: tok, UserID: userID, ExpiresAt: expiresAt})
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("create session token: retries exhausted")
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashPassword wraps bcrypt for account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
