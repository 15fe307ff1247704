package dashboard

import (
	"context"
	"io"
	"log"
	"time"

	"studiosite/internal/cache"
	"studiosite/internal/domain"
)

// cacheKey is where the assembled dashboard lives in redis.
const cacheKey = "dashboard:stats"

// DefaultTTL is how long a cached dashboard stays fresh.
const DefaultTTL = 15 * time.Minute

type customerStats interface {
	Stats(ctx context.Context) (*domain.CustomerStats, error)
}

type projectStats interface {
	Stats(ctx context.Context) (*domain.ProjectStats, error)
}

type downloadStats interface {
	Stats(ctx context.Context) (*domain.DownloadStats, error)
}

type countByStatus interface {
	Stats(ctx context.Context) (map[string]int64, error)
}

// Stats is the assembled admin dashboard.
type Stats struct {
	Customers   *domain.CustomerStats `json:"customers"`
	Projects    *domain.ProjectStats  `json:"projects"`
	Downloads   *domain.DownloadStats `json:"downloads"`
	Subscribers map[string]int64      `json:"subscribers"`
	Quotes      map[string]int64      `json:"quotes"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// Service assembles the dashboard from the entity services behind a
// read-through cache.
type Service struct {
	customers   customerStats
	projects    projectStats
	downloads   downloadStats
	subscribers countByStatus
	quotes      countByStatus
	cache       *cache.Cache
	ttl         time.Duration
	logger      *log.Logger
}

// New creates a Service. A nil cache disables caching.
func New(customers customerStats, projects projectStats, downloads downloadStats, subscribers, quotes countByStatus, c *cache.Cache, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		customers:   customers,
		projects:    projects,
		downloads:   downloads,
		subscribers: subscribers,
		quotes:      quotes,
		cache:       c,
		ttl:         ttl,
		logger:      logger,
	}
}

// Get returns the dashboard, served from cache when fresh.
func (s *Service) Get(ctx context.Context) (*Stats, error) {
	var cached Stats
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	out := &Stats{GeneratedAt: time.Now().UTC()}
	var err error
	if out.Customers, err = s.customers.Stats(ctx); err != nil {
		return nil, err
	}
	if out.Projects, err = s.projects.Stats(ctx); err != nil {
		return nil, err
	}
	if out.Downloads, err = s.downloads.Stats(ctx); err != nil {
		return nil, err
	}
	if out.Subscribers, err = s.subscribers.Stats(ctx); err != nil {
		return nil, err
	}
	if out.Quotes, err = s.quotes.Stats(ctx); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cacheKey, out, s.ttl)
	return out, nil
}

// Invalidate drops the cached dashboard so the next read rebuilds it.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cacheKey)
	s.logger.Printf("dashboard service: cache invalidated")
}
