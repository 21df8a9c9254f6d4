package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	_, err := cache.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &Cart{
		UserID: 1,
		Items: []Line{{
			Product:  ProductSummary{ID: 4, Name: "Seeds", Price: decimal.RequireFromString("10.5")},
			Quantity: 2,
		}},
	}
	cart.Totals = calculateTotals(cart.Items)

	require.NoError(t, cache.Set(ctx, 1, cart))
	assert.True(t, mr.Exists("cart:1"))

	ttl := mr.TTL("cart:1")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, 2*time.Minute)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Product.Price.Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, "21", got.Totals.Subtotal.String())

	require.NoError(t, cache.Delete(ctx, 1))
	_, err = cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Expires(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 2, &Cart{UserID: 2}))
	mr.FastForward(3 * time.Minute)

	_, err := cache.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:3", "{not json"))

	_, err := cache.Get(context.Background(), 3)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
