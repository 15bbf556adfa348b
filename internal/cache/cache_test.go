package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgate-appointment-api/internal/cache"
)

func setupTestRedis(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.New(client, time.Minute), mr
}

type view struct {
	Title string `json:"title"`
	Days  int    `json:"days"`
}

func TestGetSet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	key := c.Key(ctx, cache.AgendaScope(7), "month", 2026, 3)
	assert.Equal(t, "jobgate:agenda:7:g0:month:2026:3", key)

	var got view
	ok, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, view{Title: "March 2026", Days: 31}))
	ok, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "March 2026", got.Title)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, ok, "entries expire after the ttl")
}

func TestBumpInvalidates(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	scope := cache.UniversityScope(3)
	before := c.Key(ctx, scope, "slots")
	require.NoError(t, c.Set(ctx, before, []int{1, 2}))

	require.NoError(t, c.Bump(ctx, scope, cache.AgendaScope(1)))
	after := c.Key(ctx, scope, "slots")
	assert.NotEqual(t, before, after)

	var got []int
	ok, err := c.Get(ctx, after, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, c.Key(ctx, cache.UniversityScope(4), "slots"), "jobgate:university:4:g0:slots",
		"other scopes are untouched")
}

func TestLock(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	l, err := c.Lock(ctx, "reminders", time.Minute)
	require.NoError(t, err)

	_, err = c.Lock(ctx, "reminders", time.Minute)
	assert.ErrorIs(t, err, cache.ErrLocked)

	require.NoError(t, l.Release(ctx))
	l2, err := c.Lock(ctx, "reminders", time.Minute)
	require.NoError(t, err)

	// an expired lock taken over by someone else is not released by the old owner
	mr.FastForward(2 * time.Minute)
	l3, err := c.Lock(ctx, "reminders", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l2.Release(ctx))
	assert.True(t, mr.Exists("jobgate:lock:reminders"))
	require.NoError(t, l3.Release(ctx))
	assert.False(t, mr.Exists("jobgate:lock:reminders"))
}

func TestNilCache(t *testing.T) {
	var c *cache.Cache
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Bump(ctx, "x"))
	assert.Equal(t, "jobgate:x:g0:a", c.Key(ctx, "x", "a"))

	l, err := c.Lock(ctx, "job", time.Second)
	require.NoError(t, err)
	assert.NoError(t, l.Release(ctx))
}
