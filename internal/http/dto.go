package http

import (
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/sales"
)

type CartItemDTO struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`
}

type CartResponseDTO struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Items     []CartItemDTO `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
}

type SaleLineDTO struct {
	ID        string  `json:"id"`
	BookID    string  `json:"book_id"`
	BookTitle string  `json:"book_title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type SaleResponseDTO struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Total     float64       `json:"total"`
	Lines     []SaleLineDTO `json:"lines"`
	CreatedAt time.Time     `json:"created_at"`
}

type PagedSalesDTO struct {
	Sales []SaleResponseDTO `json:"sales"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

func convertCart(c *domain.Cart) CartResponseDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemDTO{
			ID:        item.ID.String(),
			BookID:    item.BookID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			AddedAt:   item.AddedAt,
		})
	}
	return CartResponseDTO{
		ID:        c.ID.String(),
		UserID:    c.UserID.String(),
		Items:     items,
		CreatedAt: c.CreatedAt,
	}
}

func convertSale(s *domain.Sale) SaleResponseDTO {
	lines := make([]SaleLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, SaleLineDTO{
			ID:        l.ID.String(),
			BookID:    l.BookID.String(),
			BookTitle: l.BookTitle,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return SaleResponseDTO{
		ID:        s.ID.String(),
		UserID:    s.UserID.String(),
		Total:     s.Total,
		Lines:     lines,
		CreatedAt: s.CreatedAt,
	}
}

func convertPage(r *sales.Result) PagedSalesDTO {
	dtos := make([]SaleResponseDTO, 0, len(r.Sales))
	for i := range r.Sales {
		dtos = append(dtos, convertSale(&r.Sales[i]))
	}
	return PagedSalesDTO{Sales: dtos, Total: r.Total, Page: r.Page, Size: r.Size}
}
