package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

var ErrBookNotFound = errors.New("book not found")

// GetBook returns the catalog row for a title, including the stock count
// as of this read. The value is advisory only; checkout re-checks inside
// its transaction.
func (r *Repository) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var book domain.Book
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, author, isbn, price, stock, published_at
		FROM books WHERE id = $1`, id,
	).Scan(&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Price, &book.Stock, &book.PublishedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	return &book, nil
}
