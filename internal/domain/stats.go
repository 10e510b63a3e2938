package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reporting types, consumed read-only from the sale archive and catalog.

type Summary struct {
	TotalUsers   int
	TotalBooks   int
	TotalSales   int
	TotalRevenue float64
}

// GroupSales aggregates sold quantity and revenue per category or publisher.
type GroupSales struct {
	GroupID  uuid.UUID
	Name     string
	Quantity int
	Revenue  float64
}

type BestSeller struct {
	BookID   uuid.UUID
	Title    string
	Quantity int
}

type InventoryEntry struct {
	BookID      uuid.UUID
	Title       string
	Author      string
	ISBN        string
	Category    string
	Publisher   string
	Price       float64
	Stock       int
	PublishedAt time.Time
}
