package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
	tokenrepo "studiosite/internal/repository/token"
	"studiosite/internal/service/auth"
)

type stubUsers struct {
	user *domain.User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	return &u, nil
}

type stubTokens struct {
	tokens map[string]tokenrepo.Token
}

func (s *stubTokens) Create(_ context.Context, t tokenrepo.Token) error {
	s.tokens[t.Token] = t
	return nil
}

func (s *stubTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *stubTokens) Delete(_ context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func testAuthService(t *testing.T) (*auth.Service, string) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &stubUsers{user: &domain.User{ID: 1, Email: "admin@example.com", PasswordHash: hash}}
	svc := auth.New(users, &stubTokens{tokens: map[string]tokenrepo.Token{}}, time.Hour, nil)
	sess, err := svc.Login(context.Background(), "admin@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return svc, sess.Token
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestHealthz(t *testing.T) {
	router := buildRouter(discardLogger(), nil, Deps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without db status = %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, token := testAuthService(t)
	h := &handlers{deps: Deps{Auth: svc}, logger: discardLogger()}

	router := gin.New()
	router.GET("/guarded", h.requireAuth, func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			t.Fatal("no user in context")
		}
		c.JSON(http.StatusOK, gin.H{"email": u.Email})
	})

	// No token.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}

	// Valid token.
	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "admin@example.com") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &handlers{logger: discardLogger()}

	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrHasDependents, http.StatusConflict},
		{domain.NewValidationError("email", "required"), http.StatusUnprocessableEntity},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrTokenExpired, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.respondError(c, tc.err)
		if rec.Code != tc.code {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.code)
		}
	}
}

func TestListParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&perPage=25&sortBy=name&sortDir=desc&status=active&bogus=1", nil)

	p := listParams(c, "status", "search")
	if p.Page != 3 || p.PerPage != 25 {
		t.Errorf("paging = %d/%d", p.Page, p.PerPage)
	}
	if p.SortBy != "name" || p.SortDir != "desc" {
		t.Errorf("sort = %s %s", p.SortBy, p.SortDir)
	}
	if v, ok := p.Filter("status"); !ok || v != "active" {
		t.Errorf("status filter = %q ok=%v", v, ok)
	}
	if _, ok := p.Filter("bogus"); ok {
		t.Errorf("unknown filter captured")
	}
	if _, ok := p.Filter("search"); ok {
		t.Errorf("absent filter captured")
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := bearerToken(c); got != "" {
		t.Errorf("empty header token = %q", got)
	}
	c.Request.Header.Set("Authorization", "Bearer abc123")
	if got := bearerToken(c); got != "abc123" {
		t.Errorf("token = %q", got)
	}
	c.Request.Header.Set("Authorization", "Basic abc123")
	if got := bearerToken(c); got != "" {
		t.Errorf("basic scheme token = %q", got)
	}
}
