package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
)

func setup(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, 10*time.Minute, 5*time.Minute), mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()
	lines := domain.Lines{
		CartID: 3,
		UserID: 42,
		Lines:  []domain.Line{{ItemID: 9, ProductID: 1, Quantity: 2}},
	}

	v, err := c.Version(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, c.Set(ctx, v, lines))
	assert.True(t, mr.Exists("cart:42:v0"))

	got, ok, err := c.Get(ctx, 42, v)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, lines.CartID, got.CartID)
	assert.Equal(t, lines.Lines, got.Lines)
}

func TestCache_Miss(t *testing.T) {
	c, _ := setup(t)
	_, ok, err := c.Get(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	c, mr := setup(t)
	require.NoError(t, mr.Set("cart:5:v0", "{not json"))

	_, ok, err := c.Get(context.Background(), 5, 0)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCache_TTLWithinJitterWindow(t *testing.T) {
	c, mr := setup(t)
	require.NoError(t, c.Set(context.Background(), 0, domain.Lines{UserID: 8}))

	ttl := mr.TTL("cart:8:v0")
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 15*time.Minute)
}

func TestCache_InvalidateBumpsVersion(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 0, domain.Lines{UserID: 8}))

	require.NoError(t, c.Invalidate(ctx, 8))
	assert.False(t, mr.Exists("cart:8:v0"))
	v, err := c.Version(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	require.NoError(t, c.Invalidate(ctx, 8), "nothing cached is fine")
}

// A reader that loaded before a write stores its copy under the old version,
// where nobody reads it.
func TestCache_LateWriteFromOldVersionIsInvisible(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	before, err := c.Version(ctx, 8)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, 8))
	require.NoError(t, c.Set(ctx, before, domain.Lines{UserID: 8, Lines: []domain.Line{{ItemID: 1, ProductID: 1, Quantity: 1}}}))

	now, err := c.Version(ctx, 8)
	require.NoError(t, err)
	_, ok, err := c.Get(ctx, 8, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_RedisUnavailable(t *testing.T) {
	c, mr := setup(t)
	mr.Close()

	_, err := c.Version(context.Background(), 1)
	assert.Error(t, err)
	_, _, err = c.Get(context.Background(), 1, 0)
	assert.Error(t, err)
}
