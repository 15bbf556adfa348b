// Package cache keeps rendered month views and slot lists in Redis and hands
// out short-lived locks for background jobs. A nil *Cache is usable and
// behaves as an always-empty cache whose locks always succeed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "jobgate:"
	genPrefix  = "jobgate:gen:"  // generation counter per scope: jobgate:gen:{scope}
	lockPrefix = "jobgate:lock:" // job locks: jobgate:lock:{name}
	defaultTTL = 5 * time.Minute
)

var ErrLocked = errors.New("lock held elsewhere")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Scope names for invalidation.
func AgendaScope(id int64) string     { return fmt.Sprintf("agenda:%d", id) }
func UniversityScope(id int64) string { return fmt.Sprintf("university:%d", id) }
func UserScope(id string) string      { return "user:" + id }

// Key builds a cache key bound to the current generation of scope, so a
// Bump makes every older key unreachable.
func (c *Cache) Key(ctx context.Context, scope string, parts ...any) string {
	gen := int64(0)
	if c.enabled() {
		if n, err := c.client.Get(ctx, genPrefix+scope).Int64(); err == nil {
			gen = n
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s:g%d", keyPrefix, scope, gen)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// Bump invalidates everything cached under the given scopes.
func (c *Cache) Bump(ctx context.Context, scopes ...string) error {
	if !c.enabled() || len(scopes) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, s := range scopes {
		pipe.Incr(ctx, genPrefix+s)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

// Get decodes the cached value into v and reports whether it was present.
func (c *Cache) Get(ctx context.Context, key string, v any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// release only deletes the lock if we still own it
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Lock struct {
	c     *Cache
	key   string
	token string
}

// Lock takes the named lock for ttl or returns ErrLocked.
func (c *Cache) Lock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	if !c.enabled() {
		return &Lock{}, nil
	}
	l := &Lock{c: c, key: lockPrefix + name, token: uuid.New().String()}
	ok, err := c.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return l, nil
}

func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.c == nil {
		return nil
	}
	if err := release.Run(ctx, l.c.client, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
