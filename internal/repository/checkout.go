package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

// saleCompletedPayload is the outbox/Kafka shape of a finished checkout.
type saleCompletedPayload struct {
	SaleID    uuid.UUID          `json:"sale_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Lines     []salePayloadLine  `json:"lines"`
	Total     float64            `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

type salePayloadLine struct {
	BookID    uuid.UUID `json:"book_id"`
	BookTitle string    `json:"book_title"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Subtotal  float64   `json:"subtotal"`
}

// CommitSale persists a checkout as one transaction: conditionally decrement
// stock for every line, insert the sale with its lines, write the
// sale-completed outbox event and clear the cart's items. Any failed stock
// decrement aborts the whole transaction, so a losing checkout leaves no
// partial effects.
//
// Stock updates run in book-id order so two checkouts sharing overlapping
// books cannot deadlock on each other's row locks.
func (r *Repository) CommitSale(ctx context.Context, sale *domain.Sale, cartID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lines := make([]domain.SaleLine, len(sale.Lines))
	copy(lines, sale.Lines)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].BookID.String() < lines[j].BookID.String()
	})

	for _, l := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE books SET stock = stock - $1
			WHERE id = $2 AND stock >= $1`,
			l.Quantity, l.BookID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			available, lookupErr := currentStock(ctx, tx, l.BookID)
			if lookupErr != nil {
				return lookupErr
			}
			return &domain.InsufficientStockError{
				BookID:    l.BookID,
				BookTitle: l.BookTitle,
				Requested: l.Quantity,
				Available: available,
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, total, created_at)
		VALUES ($1, $2, $3, $4)`,
		sale.ID, sale.UserID, sale.Total, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, l := range sale.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_lines (id, sale_id, book_id, book_title, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, sale.ID, l.BookID, l.BookTitle, l.Quantity, l.UnitPrice, l.Subtotal)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}

	payload, err := json.Marshal(salePayload(sale))
	if err != nil {
		return fmt.Errorf("marshal sale payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, processed, created_at)
		VALUES ($1, $2, 'sale-completed', $3, FALSE, NOW())`,
		uuid.New(), sale.ID.String(), payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	return tx.Commit()
}

func currentStock(ctx context.Context, tx *sql.Tx, bookID uuid.UUID) (int, error) {
	var stock int
	err := tx.QueryRowContext(ctx, `SELECT stock FROM books WHERE id = $1`, bookID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		// Book deleted between cart add and checkout: zero available.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}

func salePayload(sale *domain.Sale) saleCompletedPayload {
	lines := make([]salePayloadLine, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, salePayloadLine{
			BookID:    l.BookID,
			BookTitle: l.BookTitle,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return saleCompletedPayload{
		SaleID:    sale.ID,
		UserID:    sale.UserID,
		Lines:     lines,
		Total:     sale.Total,
		CreatedAt: sale.CreatedAt,
	}
}
