package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m             sync.Mutex
	err           error
	committedSale *domain.Sale
	committedCart uuid.UUID
}

func (m *mockRepository) CommitSale(_ context.Context, sale *domain.Sale, cartID uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.committedSale = sale
	m.committedCart = cartID
	return nil
}

type mockCartSource struct {
	cart *domain.Cart
	err  error
}

func (m *mockCartSource) CartForUser(context.Context, uuid.UUID) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

type mockCatalog struct {
	books map[uuid.UUID]*domain.Book
}

func (m *mockCatalog) GetBook(_ context.Context, id uuid.UUID) (*domain.Book, error) {
	book, ok := m.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return book, nil
}

type mockInvalidator struct {
	m     sync.Mutex
	calls []uuid.UUID
}

func (m *mockInvalidator) InvalidateCart(userID uuid.UUID) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, userID)
}

func TestCheckout_Success(t *testing.T) {
	userID := uuid.New()
	bookA := &domain.Book{ID: uuid.New(), Title: "The Go Programming Language", Price: 42.00, Stock: 10}
	bookB := &domain.Book{ID: uuid.New(), Title: "Clean Code", Price: 100.00, Stock: 1}

	cart := &domain.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.CartItem{
			// Unit price captured at add time differs from the current
			// catalog price; the sale must use the captured one.
			{ID: uuid.New(), BookID: bookA.ID, Quantity: 2, UnitPrice: 10.00},
			{ID: uuid.New(), BookID: bookB.ID, Quantity: 1, UnitPrice: 20.00},
		},
	}

	repo := &mockRepository{}
	invalidator := &mockInvalidator{}
	sut := NewService(repo, &mockCartSource{cart: cart},
		&mockCatalog{books: map[uuid.UUID]*domain.Book{bookA.ID: bookA, bookB.ID: bookB}},
		invalidator)
	sut.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	sale, err := sut.Checkout(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, sale.UserID)
	assert.Equal(t, 40.00, sale.Total)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, "The Go Programming Language", sale.Lines[0].BookTitle)
	assert.Equal(t, 20.00, sale.Lines[0].Subtotal)
	assert.Equal(t, 10.00, sale.Lines[0].UnitPrice)
	assert.Equal(t, 20.00, sale.Lines[1].Subtotal)

	assert.Equal(t, sale, repo.committedSale)
	assert.Equal(t, cart.ID, repo.committedCart)
	assert.Equal(t, []uuid.UUID{userID}, invalidator.calls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	cart := &domain.Cart{ID: uuid.New(), UserID: uuid.New()}
	repo := &mockRepository{}

	sut := NewService(repo, &mockCartSource{cart: cart}, &mockCatalog{}, &mockInvalidator{})
	sale, err := sut.Checkout(context.Background(), cart.UserID)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, sale)
	assert.Nil(t, repo.committedSale)
}

func TestCheckout_CartNotFound(t *testing.T) {
	sut := NewService(&mockRepository{}, &mockCartSource{err: repository.ErrCartNotFound}, &mockCatalog{}, &mockInvalidator{})

	_, err := sut.Checkout(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestCheckout_BookDeletedAfterAdd(t *testing.T) {
	userID := uuid.New()
	cart := &domain.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.CartItem{
			{ID: uuid.New(), BookID: uuid.New(), Quantity: 1, UnitPrice: 15.00},
		},
	}
	repo := &mockRepository{}

	sut := NewService(repo, &mockCartSource{cart: cart}, &mockCatalog{books: map[uuid.UUID]*domain.Book{}}, &mockInvalidator{})
	_, err := sut.Checkout(context.Background(), userID)

	assert.ErrorIs(t, err, repository.ErrBookNotFound)
	assert.Nil(t, repo.committedSale)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	userID := uuid.New()
	book := &domain.Book{ID: uuid.New(), Title: "Domain-Driven Design", Price: 55.00, Stock: 1}
	cart := &domain.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.CartItem{
			{ID: uuid.New(), BookID: book.ID, Quantity: 3, UnitPrice: 55.00},
		},
	}
	repo := &mockRepository{}
	invalidator := &mockInvalidator{}

	sut := NewService(repo, &mockCartSource{cart: cart},
		&mockCatalog{books: map[uuid.UUID]*domain.Book{book.ID: book}}, invalidator)
	_, err := sut.Checkout(context.Background(), userID)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Domain-Driven Design", stockErr.BookTitle)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.Nil(t, repo.committedSale)
	assert.Empty(t, invalidator.calls)
}

func TestCheckout_CommitConflictPassesThrough(t *testing.T) {
	userID := uuid.New()
	book := &domain.Book{ID: uuid.New(), Title: "Site Reliability Engineering", Price: 35.00, Stock: 5}
	cart := &domain.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.CartItem{
			{ID: uuid.New(), BookID: book.ID, Quantity: 2, UnitPrice: 35.00},
		},
	}
	// The soft check passed but another checkout won the race inside the
	// transaction.
	conflict := &domain.InsufficientStockError{
		BookID: book.ID, BookTitle: book.Title, Requested: 2, Available: 1,
	}
	repo := &mockRepository{err: conflict}
	invalidator := &mockInvalidator{}

	sut := NewService(repo, &mockCartSource{cart: cart},
		&mockCatalog{books: map[uuid.UUID]*domain.Book{book.ID: book}}, invalidator)
	_, err := sut.Checkout(context.Background(), userID)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Empty(t, invalidator.calls)
}
