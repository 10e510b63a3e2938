package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/pkg/circuitbreaker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const bestSellersKey = "bestsellers"

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{
		client:  client,
		baseTTL: 15 * time.Minute,
		cb: circuitbreaker.New[*domain.Cart]("cart-cache", func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		}),
	}
}

type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
	cb      *gobreaker.CircuitBreaker[*domain.Cart]
}

func (r *RedisCartCache) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return r.cb.Execute(func() (*domain.Cart, error) {
		data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, fmt.Errorf("redis get failed: %w", err)
		}

		var cart domain.Cart
		if err2 := json.Unmarshal(data, &cart); err2 != nil {
			return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
		}
		return &cart, nil
	})
}

func (r *RedisCartCache) Set(ctx context.Context, userID uuid.UUID, cart *domain.Cart) error {
	_, err := r.cb.Execute(func() (*domain.Cart, error) {
		jsonCart, err := json.Marshal(cart)
		if err != nil {
			return nil, fmt.Errorf("marshal cart failed: %w", err)
		}

		// Jitter spreads expirations so a burst of carts cached together
		// does not stampede the database when they all expire.
		jitter := time.Duration(rand.Intn(5)) * time.Minute
		if err := r.client.Set(ctx, cacheKey(userID), jsonCart, r.baseTTL+jitter).Err(); err != nil {
			return nil, fmt.Errorf("redis set failed: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *RedisCartCache) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.cb.Execute(func() (*domain.Cart, error) {
		if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
			return nil, fmt.Errorf("redis delete failed: %w", err)
		}
		return nil, nil
	})
	return err
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

// RedisRanking keeps the best-seller counts in a sorted set keyed by book
// id. Losing an update only staleness-affects the ranking, never the sale
// archive, so no breaker or retry is needed here.
type RedisRanking struct {
	client *redis.Client
}

func NewRedisRanking(client *redis.Client) *RedisRanking {
	return &RedisRanking{client: client}
}

func (r *RedisRanking) Bump(ctx context.Context, bookID uuid.UUID, quantity int) error {
	if err := r.client.ZIncrBy(ctx, bestSellersKey, float64(quantity), bookID.String()).Err(); err != nil {
		return fmt.Errorf("redis zincrby failed: %w", err)
	}
	return nil
}

func (r *RedisRanking) Top(ctx context.Context, limit int) ([]domain.BestSeller, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, bestSellersKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange failed: %w", err)
	}

	sellers := make([]domain.BestSeller, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		bookID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		sellers = append(sellers, domain.BestSeller{
			BookID:   bookID,
			Quantity: int(entry.Score),
		})
	}
	return sellers, nil
}
