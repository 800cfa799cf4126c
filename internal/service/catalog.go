package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// MaxPage держит смещение (page-1)*pageSize в пределах int
	MaxPage     = 100000
	searchLimit = 50
)

type CatalogService interface {
	List(ctx context.Context, page, pageSize int) ([]*models.Product, error)
	Search(ctx context.Context, query string) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{log: log, productRepo: productRepo}
}

// List - страницы нумеруются с 1, некорректные значения заменяются значениями по умолчанию
func (s *catalogService) List(ctx context.Context, page, pageSize int) ([]*models.Product, error) {
	const op = "service.CatalogService.List"

	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	products, err := s.productRepo.ListProducts(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

func (s *catalogService) Search(ctx context.Context, query string) ([]*models.Product, error) {
	const op = "service.CatalogService.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Product{}, nil
	}

	products, err := s.productRepo.SearchProducts(ctx, query, searchLimit)
	if err != nil {
		s.log.Error("failed to search products", slog.String("op", op), slog.String("query", query), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.Get"

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			s.log.Error("failed to get product", slog.String("op", op), slog.Int64("productID", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
