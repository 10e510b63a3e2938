// Package stats is the reporting consumer: it reads the sale archive and
// the catalog, never writes either.
package stats

import (
	"context"
	"errors"
	"log"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/catalog"
	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/fjod/go_bookstore/internal/repository"
)

type Repository interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	SalesByCategory(ctx context.Context) ([]domain.GroupSales, error)
	SalesByPublisher(ctx context.Context) ([]domain.GroupSales, error)
	InventoryReport(ctx context.Context) ([]domain.InventoryEntry, error)
}

type Service struct {
	repo    Repository
	ranking cache.Ranking
	catalog catalog.Reader
}

func NewService(repo Repository, ranking cache.Ranking, reader catalog.Reader) *Service {
	return &Service{repo: repo, ranking: ranking, catalog: reader}
}

func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	return s.repo.Summary(ctx)
}

func (s *Service) SalesByCategory(ctx context.Context) ([]domain.GroupSales, error) {
	return s.repo.SalesByCategory(ctx)
}

func (s *Service) SalesByPublisher(ctx context.Context) ([]domain.GroupSales, error) {
	return s.repo.SalesByPublisher(ctx)
}

func (s *Service) InventoryReport(ctx context.Context) ([]domain.InventoryEntry, error) {
	return s.repo.InventoryReport(ctx)
}

// BestSellers reads the Redis ranking fed by sale-completed events and
// hydrates titles from the catalog. A book deleted from the catalog keeps
// its slot with the bare id.
func (s *Service) BestSellers(ctx context.Context, limit int) ([]domain.BestSeller, error) {
	if limit < 1 {
		limit = 10
	}

	sellers, err := s.ranking.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	for i := range sellers {
		book, err := s.catalog.GetBook(ctx, sellers[i].BookID)
		if errors.Is(err, repository.ErrBookNotFound) {
			continue
		}
		if err != nil {
			log.Printf("best seller title lookup error: %v", err)
			continue
		}
		sellers[i].Title = book.Title
	}
	return sellers, nil
}
