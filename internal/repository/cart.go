package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

// EnsureCart returns the user's cart, creating an empty one if absent.
// The unique constraint on user_id keeps concurrent first-adds from
// producing two carts.
func (r *Repository) EnsureCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return r.CartForUser(ctx, userID)
}

// CartForUser loads the cart and its items. Returns ErrCartNotFound when
// the user never had a cart created.
func (r *Repository) CartForUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, book_id, quantity, unit_price, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.BookID, &item.Quantity, &item.UnitPrice, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart item iteration: %w", err)
	}

	return &cart, nil
}

// UpsertItem adds a book to the cart or bumps the quantity of the existing
// row. The unit price is written only on insert; a later add of the same
// book keeps the price captured at first add.
func (r *Repository) UpsertItem(ctx context.Context, cartID, bookID uuid.UUID, quantity int, unitPrice float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, book_id, quantity, unit_price, added_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (cart_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.New(), cartID, bookID, quantity, unitPrice)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// CartItemByID returns the item together with the id of the user owning
// the cart it belongs to, so callers can enforce ownership.
func (r *Repository) CartItemByID(ctx context.Context, itemID uuid.UUID) (*domain.CartItem, uuid.UUID, error) {
	var item domain.CartItem
	var ownerID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.book_id, i.quantity, i.unit_price, i.added_at, c.user_id
		FROM cart_items i JOIN carts c ON c.id = i.cart_id
		WHERE i.id = $1`, itemID,
	).Scan(&item.ID, &item.BookID, &item.Quantity, &item.UnitPrice, &item.AddedAt, &ownerID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, uuid.Nil, ErrItemNotFound
	}
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("query cart item: %w", err)
	}

	return &item, ownerID, nil
}

func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE id = $2`, quantity, itemID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem is idempotent: deleting an already-gone item is not an error,
// so a remove racing another remove of the same row still succeeds.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}
