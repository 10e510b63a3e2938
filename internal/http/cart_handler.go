package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type CartHandler struct {
	service CartService
	timeout time.Duration
}

func NewCartHandler(service CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{service: service, timeout: timeout}
}

type AddItemRequestDTO struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.service.GetCart(ctx, userIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCart(cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be a UUID")
		return
	}

	cart, err := h.service.AddItem(ctx, userIDFromContext(r.Context()), bookID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertCart(cart))
}

// PUT /api/v1/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a UUID")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	item, err := h.service.UpdateItemQuantity(ctx, userIDFromContext(r.Context()), itemID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartItemDTO{
		ID:        item.ID.String(),
		BookID:    item.BookID.String(),
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		AddedAt:   item.AddedAt,
	})
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a UUID")
		return
	}

	if err := h.service.RemoveItem(ctx, userIDFromContext(r.Context()), itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
