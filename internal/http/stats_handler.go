package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
)

type StatsService interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	SalesByCategory(ctx context.Context) ([]domain.GroupSales, error)
	SalesByPublisher(ctx context.Context) ([]domain.GroupSales, error)
	InventoryReport(ctx context.Context) ([]domain.InventoryEntry, error)
	BestSellers(ctx context.Context, limit int) ([]domain.BestSeller, error)
}

type StatsHandler struct {
	service StatsService
	timeout time.Duration
}

func NewStatsHandler(service StatsService, timeout time.Duration) *StatsHandler {
	return &StatsHandler{service: service, timeout: timeout}
}

type SummaryDTO struct {
	TotalUsers   int     `json:"total_users"`
	TotalBooks   int     `json:"total_books"`
	TotalSales   int     `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
}

type GroupSalesDTO struct {
	GroupID  string  `json:"group_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type BestSellerDTO struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type InventoryEntryDTO struct {
	BookID      string  `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        string  `json:"isbn"`
	Category    string  `json:"category"`
	Publisher   string  `json:"publisher"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	PublishedAt string  `json:"published_at"`
}

// GET /api/v1/admin/stats/summary
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SummaryDTO{
		TotalUsers:   summary.TotalUsers,
		TotalBooks:   summary.TotalBooks,
		TotalSales:   summary.TotalSales,
		TotalRevenue: summary.TotalRevenue,
	})
}

// GET /api/v1/admin/stats/best-sellers
func (h *StatsHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sellers, err := h.service.BestSellers(ctx, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dto := make([]BestSellerDTO, 0, len(sellers))
	for _, s := range sellers {
		dto = append(dto, BestSellerDTO{
			BookID:   s.BookID.String(),
			Title:    s.Title,
			Quantity: s.Quantity,
		})
	}
	respondJSON(w, http.StatusOK, dto)
}

// GET /api/v1/admin/stats/sales-by-category
func (h *StatsHandler) SalesByCategory(w http.ResponseWriter, r *http.Request) {
	h.groupSales(w, r, h.service.SalesByCategory)
}

// GET /api/v1/admin/stats/sales-by-publisher
func (h *StatsHandler) SalesByPublisher(w http.ResponseWriter, r *http.Request) {
	h.groupSales(w, r, h.service.SalesByPublisher)
}

func (h *StatsHandler) groupSales(w http.ResponseWriter, r *http.Request, load func(context.Context) ([]domain.GroupSales, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	groups, err := load(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dto := make([]GroupSalesDTO, 0, len(groups))
	for _, g := range groups {
		dto = append(dto, GroupSalesDTO{
			GroupID:  g.GroupID.String(),
			Name:     g.Name,
			Quantity: g.Quantity,
			Revenue:  g.Revenue,
		})
	}
	respondJSON(w, http.StatusOK, dto)
}

// GET /api/v1/admin/reports/inventory
func (h *StatsHandler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entries, err := h.service.InventoryReport(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dto := make([]InventoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		dto = append(dto, InventoryEntryDTO{
			BookID:      e.BookID.String(),
			Title:       e.Title,
			Author:      e.Author,
			ISBN:        e.ISBN,
			Category:    e.Category,
			Publisher:   e.Publisher,
			Price:       e.Price,
			Stock:       e.Stock,
			PublishedAt: e.PublishedAt.Format("2006-01-02"),
		})
	}
	respondJSON(w, http.StatusOK, dto)
}
