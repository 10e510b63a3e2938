package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_bookstore/internal/cart"
	"github.com/fjod/go_bookstore/internal/checkout"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/fjod/go_bookstore/internal/sales"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Every named failure keeps its identity so the caller can tell an absent
// sale from a forbidden one and retry a stock conflict meaningfully.
func handleServiceError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, cart.ErrItemNotOwned):
		respondError(w, http.StatusForbidden, "item_not_owned", err.Error())
	case errors.Is(err, sales.ErrAccessDenied):
		respondError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, repository.ErrBookNotFound):
		respondError(w, http.StatusNotFound, "book_not_found", err.Error())
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", err.Error())
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, repository.ErrSaleNotFound):
		respondError(w, http.StatusNotFound, "sale_not_found", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
