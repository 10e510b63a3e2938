package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientStockError names the offending book so callers can retry
// with a smaller quantity or drop the line.
type InsufficientStockError struct {
	BookID    uuid.UUID
	BookTitle string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (book %s): requested %d, available %d",
		e.BookTitle, e.BookID, e.Requested, e.Available)
}
