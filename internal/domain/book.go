package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book is the catalog's view of a title. Stock here is the value read at
// lookup time; the authoritative decrement happens inside the checkout
// transaction, never through this struct.
type Book struct {
	ID          uuid.UUID
	Title       string
	Author      string
	ISBN        string
	Price       float64
	Stock       int
	PublishedAt time.Time
}
