package cache

import (
	"context"
	"testing"
	"time"

	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ElementCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, ttl)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestGetMissesOnEmptyCache(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	_, ok := c.Get(context.Background(), domain.NewElement("Database", domain.ElementProperties{QualifiedName: "x"}).GUID)
	assert.False(t, ok)
}

func TestSetThenGetRoundTrips(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	element := domain.NewElement("Database", domain.ElementProperties{
		QualifiedName:        "srv::db1",
		DisplayName:          "db1",
		AdditionalProperties: map[string]string{"engine": "postgres"},
	})
	require.NoError(t, c.Set(ctx, element))

	cached, ok := c.Get(ctx, element.GUID)
	require.True(t, ok)
	assert.Equal(t, element.GUID, cached.GUID)
	assert.Equal(t, element.QualifiedName, cached.QualifiedName)
	assert.Equal(t, element.AdditionalProperties, cached.AdditionalProperties)
}

func TestInvalidateDropsEntry(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	element := domain.NewElement("Database", domain.ElementProperties{QualifiedName: "srv::db1"})
	require.NoError(t, c.Set(ctx, element))
	require.NoError(t, c.Invalidate(ctx, element.GUID))

	_, ok := c.Get(ctx, element.GUID)
	assert.False(t, ok)

	// Invalidating an absent entry is fine.
	assert.NoError(t, c.Invalidate(ctx, element.GUID))
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	element := domain.NewElement("Database", domain.ElementProperties{QualifiedName: "srv::db1"})
	require.NoError(t, c.Set(ctx, element))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, element.GUID)
	assert.False(t, ok)
}
