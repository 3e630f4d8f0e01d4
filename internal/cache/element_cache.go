// Package cache provides a redis read-through cache for element point
// lookups. Reads with a reference time bypass it; writes invalidate.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "metacat:element:"

// ElementCache caches elements by GUID with a TTL.
type ElementCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the cache connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds staleness for entries missed by invalidation. Zero
	// selects five minutes.
	TTL time.Duration
}

// New connects to redis and returns an element cache.
func New(opts Options) (*ElementCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, opts.TTL), nil
}

// NewWithClient wraps an existing redis client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *ElementCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ElementCache{client: client, ttl: ttl}
}

// Get returns the cached element and true on a hit. Cache failures are
// reported as misses so the store stays authoritative.
func (c *ElementCache) Get(ctx context.Context, guid uuid.UUID) (domain.Element, bool) {
	data, err := c.client.Get(ctx, keyPrefix+guid.String()).Bytes()
	if err != nil {
		return domain.Element{}, false
	}

	var element domain.Element
	if err := json.Unmarshal(data, &element); err != nil {
		return domain.Element{}, false
	}
	return element, true
}

// Set stores the element under its GUID.
func (c *ElementCache) Set(ctx context.Context, element domain.Element) error {
	data, err := json.Marshal(element)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+element.GUID.String(), data, c.ttl).Err()
}

// Invalidate drops the cached entry for guid.
func (c *ElementCache) Invalidate(ctx context.Context, guid uuid.UUID) error {
	err := c.client.Del(ctx, keyPrefix+guid.String()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Close releases the redis connection.
func (c *ElementCache) Close() error {
	return c.client.Close()
}
