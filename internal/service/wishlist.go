package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/storage"
)

type WishlistService interface {
	Add(ctx context.Context, userID, productID int64) (int64, error)
	Remove(ctx context.Context, userID, wishID int64) error
}

type wishlistService struct {
	log          *slog.Logger
	wishlistRepo storage.WishlistStorage
	productRepo  storage.ProductStorage
}

func NewWishlistService(log *slog.Logger, wishlistRepo storage.WishlistStorage, productRepo storage.ProductStorage) WishlistService {
	return &wishlistService{
		log:          log,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID int64) (int64, error) {
	const op = "service.WishlistService.Add"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.wishlistRepo.Add(ctx, userID, productID)
	if err != nil {
		if !errors.Is(err, storage.ErrAlreadyInWishlist) {
			logger.Error("failed to add to wishlist", slog.Any("error", err))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("added to wishlist", slog.Int64("wishID", id))
	return id, nil
}

// Remove удаляет запись только у её владельца
func (s *wishlistService) Remove(ctx context.Context, userID, wishID int64) error {
	const op = "service.WishlistService.Remove"

	if err := s.wishlistRepo.Remove(ctx, wishID, userID); err != nil {
		if !errors.Is(err, storage.ErrWishlistItemNotFound) {
			s.log.Error("failed to remove from wishlist", slog.String("op", op), slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
