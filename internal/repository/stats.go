package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_bookstore/internal/domain"
)

func (r *Repository) Summary(ctx context.Context) (*domain.Summary, error) {
	var s domain.Summary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM sales),
			(SELECT COALESCE(SUM(total), 0) FROM sales)`,
	).Scan(&s.TotalUsers, &s.TotalBooks, &s.TotalSales, &s.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &s, nil
}

func (r *Repository) SalesByCategory(ctx context.Context) ([]domain.GroupSales, error) {
	return r.salesByGroup(ctx, `
		SELECT c.id, c.name, COALESCE(SUM(l.quantity), 0), COALESCE(SUM(l.subtotal), 0)
		FROM categories c
		LEFT JOIN books b ON b.category_id = c.id
		LEFT JOIN sale_lines l ON l.book_id = b.id
		GROUP BY c.id, c.name
		ORDER BY c.name`)
}

func (r *Repository) SalesByPublisher(ctx context.Context) ([]domain.GroupSales, error) {
	return r.salesByGroup(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(l.quantity), 0), COALESCE(SUM(l.subtotal), 0)
		FROM publishers p
		LEFT JOIN books b ON b.publisher_id = p.id
		LEFT JOIN sale_lines l ON l.book_id = b.id
		GROUP BY p.id, p.name
		ORDER BY p.name`)
}

func (r *Repository) salesByGroup(ctx context.Context, query string) ([]domain.GroupSales, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sales by group: %w", err)
	}
	defer rows.Close()

	var groups []domain.GroupSales
	for rows.Next() {
		var g domain.GroupSales
		if err := rows.Scan(&g.GroupID, &g.Name, &g.Quantity, &g.Revenue); err != nil {
			return nil, fmt.Errorf("scan group sales: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *Repository) InventoryReport(ctx context.Context) ([]domain.InventoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.title, b.author, b.isbn,
		       COALESCE(c.name, ''), COALESCE(p.name, ''),
		       b.price, b.stock, b.published_at
		FROM books b
		LEFT JOIN categories c ON c.id = b.category_id
		LEFT JOIN publishers p ON p.id = b.publisher_id
		ORDER BY b.title`)
	if err != nil {
		return nil, fmt.Errorf("query inventory report: %w", err)
	}
	defer rows.Close()

	var entries []domain.InventoryEntry
	for rows.Next() {
		var e domain.InventoryEntry
		if err := rows.Scan(&e.BookID, &e.Title, &e.Author, &e.ISBN,
			&e.Category, &e.Publisher, &e.Price, &e.Stock, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
