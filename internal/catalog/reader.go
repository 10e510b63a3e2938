// Package catalog defines the read-only port to the book catalog.
// Catalog CRUD lives outside this service; the order backend only ever
// looks titles up and lets the checkout transaction decrement stock.
package catalog

import (
	"context"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

type Reader interface {
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
}
