package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale is immutable once created. Lines carry a denormalized book title so
// sale history survives catalog edits and deletions.
type Sale struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Total     float64
	Lines     []SaleLine
	CreatedAt time.Time
}

type SaleLine struct {
	ID        uuid.UUID
	BookID    uuid.UUID
	BookTitle string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}
