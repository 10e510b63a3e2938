package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrSaleNotFound = errors.New("sale not found")

// SaleFilter narrows the admin listing. To is exclusive; callers translate
// an inclusive end date into the start of the following day.
type SaleFilter struct {
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

func (r *Repository) SaleByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	var sale domain.Sale
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, created_at FROM sales WHERE id = $1`, id,
	).Scan(&sale.ID, &sale.UserID, &sale.Total, &sale.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sale: %w", err)
	}

	sales := []domain.Sale{sale}
	if err := r.loadSaleLines(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

// SalesByUser returns one page of the user's sales, newest first, plus the
// total number of sales for paging.
func (r *Repository) SalesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Sale, int, error) {
	filter := SaleFilter{UserID: &userID}
	return r.SalesByFilter(ctx, filter, limit, offset)
}

func (r *Repository) SalesByFilter(ctx context.Context, filter SaleFilter, limit, offset int) ([]domain.Sale, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, user_id, total, created_at FROM sales %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.UserID, &sale.Total, &sale.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sale iteration: %w", err)
	}

	if err := r.loadSaleLines(ctx, sales); err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *Repository) loadSaleLines(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]string, 0, len(sales))
	index := make(map[uuid.UUID]*domain.Sale, len(sales))
	for i := range sales {
		ids = append(ids, sales[i].ID.String())
		index[sales[i].ID] = &sales[i]
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sale_id, book_id, book_title, quantity, unit_price, subtotal
		FROM sale_lines WHERE sale_id = ANY($1) ORDER BY book_title`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query sale lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.SaleLine
		var saleID uuid.UUID
		if err := rows.Scan(&line.ID, &saleID, &line.BookID, &line.BookTitle,
			&line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return fmt.Errorf("scan sale line: %w", err)
		}
		if sale, ok := index[saleID]; ok {
			sale.Lines = append(sale.Lines, line)
		}
	}
	return rows.Err()
}
