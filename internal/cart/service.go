package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/catalog"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotOwned    = errors.New("cart item belongs to another user")
)

// Repository is the cart's view of the store.
type Repository interface {
	EnsureCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	CartForUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID, bookID uuid.UUID, quantity int, unitPrice float64) error
	CartItemByID(ctx context.Context, itemID uuid.UUID) (*domain.CartItem, uuid.UUID, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type Service struct {
	repo    Repository
	catalog catalog.Reader
	cache   cache.CartCache
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, reader catalog.Reader, cartCache cache.CartCache) *Service {
	return &Service{
		repo:    repo,
		catalog: reader,
		cache:   cartCache,
	}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID.String(), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.EnsureCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem puts quantity copies of a book in the cart. A book already in the
// cart gets its quantity incremented; the unit price captured at first add
// stays. The stock check here is advisory: stock is not reserved until
// checkout, which re-validates against the then-current count.
func (s *Service) AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := quantity
	if existing := cart.ItemForBook(bookID); existing != nil {
		wanted += existing.Quantity
	}
	if book.Stock < wanted {
		return nil, &domain.InsufficientStockError{
			BookID:    book.ID,
			BookTitle: book.Title,
			Requested: wanted,
			Available: book.Stock,
		}
	}

	if err := s.repo.UpsertItem(ctx, cart.ID, bookID, quantity, book.Price); err != nil {
		log.Printf("repo upsert item error: %v", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return s.repo.CartForUser(ctx, userID)
}

// UpdateItemQuantity replaces an item's quantity. Removal must go through
// RemoveItem; a zero or negative quantity is rejected.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, ownerID, err := s.repo.CartItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrItemNotOwned
	}

	book, err := s.catalog.GetBook(ctx, item.BookID)
	if err != nil {
		return nil, err
	}
	if book.Stock < quantity {
		return nil, &domain.InsufficientStockError{
			BookID:    book.ID,
			BookTitle: book.Title,
			Requested: quantity,
			Available: book.Stock,
		}
	}

	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		log.Printf("repo update item quantity error: %v", err)
		return nil, err
	}

	s.invalidateCache(userID)
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes an item from the user's cart. Removing an id that no
// longer exists succeeds silently, so two tabs racing the same remove both
// come back clean. An item owned by a different user is still rejected.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	_, ownerID, err := s.repo.CartItemByID(ctx, itemID)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrItemNotOwned
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		log.Printf("repo delete item error: %v", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// InvalidateCart drops the cached cart, used by checkout after it clears
// the cart's items.
func (s *Service) InvalidateCart(userID uuid.UUID) {
	s.invalidateCache(userID)
}

func (s *Service) invalidateCache(userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
