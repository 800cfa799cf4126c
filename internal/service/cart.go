package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// CartView - корзина с подытогами по текущим ценам
type CartView struct {
	Items []*models.CartItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`
}

func newCartView(items []*models.CartItem) *CartView {
	view := &CartView{Items: items, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []*models.CartItem{}
	}
	for _, item := range items {
		if item.Unavailable {
			continue
		}
		view.Total = view.Total.Add(item.Subtotal)
		view.Count += item.Quantity
	}
	return view
}

type CartService interface {
	Add(ctx context.Context, userID, productID int64, quantity int) error
	// Update меняет количество; 0 удаляет строку.
	Update(ctx context.Context, userID, productID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
	View(ctx context.Context, userID int64) (*CartView, error)
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func invalidQuantity(quantity int) error {
	return &ValidationError{Reason: fmt.Sprintf("invalid quantity %d", quantity), Fields: []string{"quantity"}}
}

func (s *cartService) Add(ctx context.Context, userID, productID int64, quantity int) error {
	const op = "service.CartService.Add"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity < 1 || quantity > models.MaxCartQuantity {
		return fmt.Errorf("%s: %w", op, invalidQuantity(quantity))
	}

	// остаток здесь не проверяем: он сверяется под блокировкой при оформлении
	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if !errors.Is(err, storage.ErrProductNotFound) {
			logger.Error("failed to get product", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.AddItem(ctx, userID, productID, quantity); err != nil {
		logger.Error("failed to add item", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return nil
}

func (s *cartService) Update(ctx context.Context, userID, productID int64, quantity int) error {
	const op = "service.CartService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity < 0 || quantity > models.MaxCartQuantity {
		return fmt.Errorf("%s: %w", op, invalidQuantity(quantity))
	}

	var err error
	if quantity == 0 {
		err = s.cartRepo.RemoveItem(ctx, userID, productID)
	} else {
		err = s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
	}
	if err != nil {
		if !errors.Is(err, storage.ErrCartItemNotFound) {
			logger.Error("failed to update cart", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) Remove(ctx context.Context, userID, productID int64) error {
	const op = "service.CartService.Remove"

	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		if !errors.Is(err, storage.ErrCartItemNotFound) {
			s.log.Error("failed to remove item", slog.String("op", op), slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) View(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CartService.View"

	items, err := s.cartRepo.ListCart(ctx, userID)
	if err != nil {
		s.log.Error("failed to load cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return newCartView(items), nil
}
