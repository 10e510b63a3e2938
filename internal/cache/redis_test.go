package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func testCart(userID uuid.UUID) *domain.Cart {
	return &domain.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.CartItem{
			{ID: uuid.New(), BookID: uuid.New(), Quantity: 2, UnitPrice: 19.99, AddedAt: time.Now().UTC()},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestCartCacheGet_Success(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	userID := uuid.New()
	cart := testCart(userID)

	cartJSON, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(userID), string(cartJSON)))

	result, err := cache.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, result.ID)
	require.Len(t, result.Items, 1)
	assert.Equal(t, cart.Items[0].BookID, result.Items[0].BookID)
}

func TestCartCacheGet_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	result, err := cache.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestCartCacheGet_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	userID := uuid.New()
	require.NoError(t, mr.Set(cacheKey(userID), `{"id": truncated`))

	_, err := cache.Get(context.Background(), userID)
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestCartCacheSet_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	userID := uuid.New()
	cart := testCart(userID)

	require.NoError(t, cache.Set(context.Background(), userID, cart))
	assert.True(t, mr.Exists(cacheKey(userID)))

	// TTL carries jitter on top of the base.
	ttl := mr.TTL(cacheKey(userID))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.LessOrEqual(t, ttl, 20*time.Minute)

	result, err := cache.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, result.ID)
}

func TestCartCacheDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	userID := uuid.New()
	require.NoError(t, cache.Set(context.Background(), userID, testCart(userID)))
	require.NoError(t, cache.Delete(context.Background(), userID))
	assert.False(t, mr.Exists(cacheKey(userID)))

	// Deleting an absent key stays a success.
	assert.NoError(t, cache.Delete(context.Background(), userID))
}

func TestCartCacheMissDoesNotTripBreaker(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisCartCache(client)

	userID := uuid.New()
	for i := 0; i < 10; i++ {
		_, err := cache.Get(context.Background(), userID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	}
}

func TestRankingBumpAndTop(t *testing.T) {
	client, _ := setupTestRedis(t)
	ranking := NewRedisRanking(client)
	ctx := context.Background()

	bookA := uuid.New()
	bookB := uuid.New()

	require.NoError(t, ranking.Bump(ctx, bookA, 3))
	require.NoError(t, ranking.Bump(ctx, bookB, 1))
	require.NoError(t, ranking.Bump(ctx, bookA, 2))

	top, err := ranking.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, bookA, top[0].BookID)
	assert.Equal(t, 5, top[0].Quantity)
	assert.Equal(t, bookB, top[1].BookID)
	assert.Equal(t, 1, top[1].Quantity)
}

func TestRankingTop_LimitTruncates(t *testing.T) {
	client, _ := setupTestRedis(t)
	ranking := NewRedisRanking(client)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, ranking.Bump(ctx, uuid.New(), i))
	}

	top, err := ranking.Top(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
	assert.Equal(t, 5, top[0].Quantity)
}

func TestRankingTop_SkipsForeignMembers(t *testing.T) {
	client, mr := setupTestRedis(t)
	ranking := NewRedisRanking(client)

	bookID := uuid.New()
	require.NoError(t, ranking.Bump(context.Background(), bookID, 4))
	mr.ZAdd(bestSellersKey, 99, "not-a-uuid")

	top, err := ranking.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, bookID, top[0].BookID)
}
