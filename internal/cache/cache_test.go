package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, nil), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "stats", payload{Count: 3, Name: "dash"}, time.Minute)

	var got payload
	require.True(t, c.Get(ctx, "stats", &got))
	assert.Equal(t, payload{Count: 3, Name: "dash"}, got)
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)
	var got payload
	assert.False(t, c.Get(context.Background(), "absent", &got))
}

func TestTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "stats", payload{Count: 1}, 15*time.Minute)
	mr.FastForward(16 * time.Minute)

	var got payload
	assert.False(t, c.Get(ctx, "stats", &got))
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "stats", payload{Count: 1}, time.Minute)
	c.Invalidate(ctx, "stats")

	var got payload
	assert.False(t, c.Get(ctx, "stats", &got))
}

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	var c *Cache
	var got payload
	assert.False(t, c.Get(context.Background(), "k", &got))
	c.Set(context.Background(), "k", got, time.Minute) // must not panic
	c.Invalidate(context.Background(), "k")
}
