package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/sales"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SalesService interface {
	History(ctx context.Context, userID uuid.UUID, page sales.Page) (*sales.Result, error)
	Detail(ctx context.Context, requesterID, saleID uuid.UUID, isAdmin bool) (*domain.Sale, error)
	AdminList(ctx context.Context, filter sales.Filter, page sales.Page) (*sales.Result, error)
}

type SalesHandler struct {
	service SalesService
	timeout time.Duration
}

func NewSalesHandler(service SalesService, timeout time.Duration) *SalesHandler {
	return &SalesHandler{service: service, timeout: timeout}
}

// GET /api/v1/sales
func (h *SalesHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.service.History(ctx, userIDFromContext(r.Context()), pageFromQuery(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPage(result))
}

// GET /api/v1/sales/{sale_id}
func (h *SalesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	saleID, err := uuid.Parse(chi.URLParam(r, "sale_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sale_id", "sale_id must be a UUID")
		return
	}

	sale, err := h.service.Detail(ctx, userIDFromContext(r.Context()), saleID, isAdmin(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertSale(sale))
}

// GET /api/v1/admin/sales
func (h *SalesHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var filter sales.Filter

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a UUID")
			return
		}
		filter.UserID = &userID
	}

	var ok bool
	if filter.DateFrom, ok = dateFromQuery(w, r, "date_from"); !ok {
		return
	}
	if filter.DateTo, ok = dateFromQuery(w, r, "date_to"); !ok {
		return
	}

	result, err := h.service.AdminList(ctx, filter, pageFromQuery(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPage(result))
}

// GET /api/v1/admin/sales/{sale_id}
func (h *SalesHandler) AdminDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	saleID, err := uuid.Parse(chi.URLParam(r, "sale_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sale_id", "sale_id must be a UUID")
		return
	}

	sale, err := h.service.Detail(ctx, userIDFromContext(r.Context()), saleID, true)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertSale(sale))
}

func pageFromQuery(r *http.Request) sales.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return sales.Page{Number: page, Size: size}
}

// dateFromQuery parses an optional ISO date parameter. On a malformed value
// it writes a 400 response and reports !ok.
func dateFromQuery(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_date", name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &parsed, true
}
