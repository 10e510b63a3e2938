package sales

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
)

var ErrAccessDenied = errors.New("sale belongs to another user")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request; out-of-range values are clamped.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

type Result struct {
	Sales []domain.Sale
	Total int
	Page  int
	Size  int
}

// Filter narrows the admin listing. Dates are civil dates: DateFrom is
// inclusive from the start of that day, DateTo inclusive through its end.
type Filter struct {
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

type Repository interface {
	SaleByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	SalesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Sale, int, error)
	SalesByFilter(ctx context.Context, filter repository.SaleFilter, limit, offset int) ([]domain.Sale, int, error)
}

// Service answers queries over the sale archive. Nothing here ever writes:
// sales are appended by the checkout transaction and immutable afterwards.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) History(ctx context.Context, userID uuid.UUID, page Page) (*Result, error) {
	page = page.normalized()
	sales, total, err := s.repo.SalesByUser(ctx, userID, page.Size, (page.Number-1)*page.Size)
	if err != nil {
		return nil, err
	}
	return &Result{Sales: sales, Total: total, Page: page.Number, Size: page.Size}, nil
}

// Detail returns a single sale. Non-admin requesters only ever see their
// own sales; someone else's sale is ErrAccessDenied, not a not-found, since
// the sale does exist.
func (s *Service) Detail(ctx context.Context, requesterID, saleID uuid.UUID, isAdmin bool) (*domain.Sale, error) {
	sale, err := s.repo.SaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && sale.UserID != requesterID {
		return nil, ErrAccessDenied
	}
	return sale, nil
}

func (s *Service) AdminList(ctx context.Context, filter Filter, page Page) (*Result, error) {
	page = page.normalized()

	repoFilter := repository.SaleFilter{UserID: filter.UserID}
	if filter.DateFrom != nil {
		from := startOfDay(*filter.DateFrom)
		repoFilter.From = &from
	}
	if filter.DateTo != nil {
		// Inclusive through end of day: compare against the next midnight.
		to := startOfDay(*filter.DateTo).AddDate(0, 0, 1)
		repoFilter.To = &to
	}

	sales, total, err := s.repo.SalesByFilter(ctx, repoFilter, page.Size, (page.Number-1)*page.Size)
	if err != nil {
		return nil, err
	}
	return &Result{Sales: sales, Total: total, Page: page.Number, Size: page.Size}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
