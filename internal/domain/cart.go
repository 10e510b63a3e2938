package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds at most one item row per book; adding the same book again
// increments the existing row's quantity.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
}

// CartItem captures the unit price at the moment the book was first added.
// The price is not re-read on later quantity changes.
type CartItem struct {
	ID        uuid.UUID
	BookID    uuid.UUID
	Quantity  int
	UnitPrice float64
	AddedAt   time.Time
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemForBook returns the cart's row for the given book, if any.
func (c *Cart) ItemForBook(bookID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return &c.Items[i]
		}
	}
	return nil
}
