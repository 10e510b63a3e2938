package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Set(ctx context.Context, userID uuid.UUID, cart *domain.Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Ranking is the best-seller counter fed by sale-completed events.
type Ranking interface {
	Bump(ctx context.Context, bookID uuid.UUID, quantity int) error
	Top(ctx context.Context, limit int) ([]domain.BestSeller, error)
}

var ErrCacheMiss = errors.New("cache miss")
