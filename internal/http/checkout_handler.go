package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Sale, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{service: service, timeout: timeout}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sale, err := h.service.Checkout(ctx, userIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertSale(sale))
}
