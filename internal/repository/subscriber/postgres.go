package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/domain"
	"studiosite/internal/query"
)

var sortFields = map[string]string{
	"email":      "email",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const defaultOrder = "created_at DESC"

const subscriberCols = `id, email, name, status, subscribed, verification_token, source, ip_address, user_agent,
       preferences, subscribed_at, unsubscribed_at, verified_at, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, p query.Params) ([]domain.Subscriber, query.Meta, error) {
	b := &query.Builder{}
	b.Where("1 = 1")
	if search, ok := p.Filter("search"); ok && search != "" {
		needle := "%" + search + "%"
		b.Where("(email ILIKE ? OR name ILIKE ?)", needle, needle)
	}
	if status, ok := p.Filter("status"); ok && status != "" {
		b.Where("status = ?", status)
	}
	where, args := b.Clause()

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM subscribers "+where, args...).Scan(&total); err != nil {
		r.logger.Printf("subscriber repo: count error=%v", err)
		return nil, query.Meta{}, err
	}

	q := fmt.Sprintf("SELECT %s FROM subscribers %s ORDER BY %s LIMIT $%d OFFSET $%d",
		subscriberCols, where, p.OrderBy(sortFields, defaultOrder), b.NextArg(), b.NextArg()+1)
	rows, err := r.pool.Query(ctx, q, append(args, p.PerPage, p.Offset())...)
	if err != nil {
		r.logger.Printf("subscriber repo: list error=%v", err)
		return nil, query.Meta{}, err
	}
	defer rows.Close()

	var result []domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, query.Meta{}, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, query.Meta{}, err
	}
	return result, query.NewMeta(total, p.Page, p.PerPage), nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	q := fmt.Sprintf("SELECT %s FROM subscribers WHERE lower(email) = lower($1) LIMIT 1", subscriberCols)
	s, err := scanSubscriber(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("subscriber repo: get email=%s error=%v", email, err)
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error) {
	prefs, err := json.Marshal(s.Preferences)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
INSERT INTO subscribers (email, name, status, subscribed, verification_token, source, ip_address, user_agent, preferences)
VALUES (lower($1), $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
RETURNING %s`, subscriberCols)
	out, err := scanSubscriber(r.pool.QueryRow(ctx, q,
		s.Email, s.Name, s.Status, s.Subscribed, s.VerificationToken, s.Source, s.IPAddress, s.UserAgent, prefs,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("subscriber repo: create email=%s error=%v", s.Email, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error) {
	prefs, err := json.Marshal(s.Preferences)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
UPDATE subscribers
SET name = $2, status = $3, subscribed = $4, verification_token = NULLIF($5, ''), preferences = $6,
    subscribed_at = $7, unsubscribed_at = $8, verified_at = $9, updated_at = now()
WHERE id = $1
RETURNING %s`, subscriberCols)
	out, err := scanSubscriber(r.pool.QueryRow(ctx, q,
		s.ID, s.Name, s.Status, s.Subscribed, s.VerificationToken, prefs,
		s.SubscribedAt, s.UnsubscribedAt, s.VerifiedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("subscriber repo: update id=%d error=%v", s.ID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM subscribers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var k string
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

func scanSubscriber(row pgx.Row) (*domain.Subscriber, error) {
	var s domain.Subscriber
	var token *string
	var prefs []byte
	err := row.Scan(
		&s.ID, &s.Email, &s.Name, &s.Status, &s.Subscribed, &token, &s.Source, &s.IPAddress, &s.UserAgent,
		&prefs, &s.SubscribedAt, &s.UnsubscribedAt, &s.VerifiedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if token != nil {
		s.VerificationToken = *token
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &s.Preferences); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
