package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_bookstore/internal/catalog"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to check out")

// Repository commits the whole checkout as one transaction: stock
// decrements, sale insert, outbox event and cart clearing together.
type Repository interface {
	CommitSale(ctx context.Context, sale *domain.Sale, cartID uuid.UUID) error
}

type CartSource interface {
	CartForUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

// CartInvalidator drops any cached copy of the cart once checkout cleared
// its items.
type CartInvalidator interface {
	InvalidateCart(userID uuid.UUID)
}

type Service struct {
	repo       Repository
	carts      CartSource
	catalog    catalog.Reader
	invalidate CartInvalidator
	now        func() time.Time
}

func NewService(repo Repository, carts CartSource, reader catalog.Reader, invalidate CartInvalidator) *Service {
	return &Service{
		repo:       repo,
		carts:      carts,
		catalog:    reader,
		invalidate: invalidate,
		now:        time.Now,
	}
}

// Checkout converts the user's cart into an immutable sale. Every line is
// re-validated against current stock before anything is written; if any
// line cannot be satisfied the whole checkout fails and no stock moves.
// Prices come from the cart items as captured at add time, not from the
// catalog re-read.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (*domain.Sale, error) {
	cart, err := s.carts.CartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	sale := &domain.Sale{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: s.now(),
	}

	for _, item := range cart.Items {
		book, err := s.catalog.GetBook(ctx, item.BookID)
		if err != nil {
			return nil, err
		}
		if book.Stock < item.Quantity {
			return nil, &domain.InsufficientStockError{
				BookID:    book.ID,
				BookTitle: book.Title,
				Requested: item.Quantity,
				Available: book.Stock,
			}
		}

		subtotal := float64(item.Quantity) * item.UnitPrice
		sale.Lines = append(sale.Lines, domain.SaleLine{
			ID:        uuid.New(),
			BookID:    item.BookID,
			BookTitle: book.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
		sale.Total += subtotal
	}

	// The soft check above can still lose a race; CommitSale's conditional
	// decrement is the authoritative check and reports the losing book.
	if err := s.repo.CommitSale(ctx, sale, cart.ID); err != nil {
		return nil, err
	}

	if s.invalidate != nil {
		s.invalidate.InvalidateCart(userID)
	}
	return sale, nil
}
