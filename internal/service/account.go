package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// AccountService определяет интерфейс личного кабинета покупателя.
type AccountService interface {
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetails, error)
}

// accountService — конкретная реализация AccountService.
type accountService struct {
	log          *slog.Logger
	userRepo     storage.UserStorage
	orderRepo    storage.OrderStorage
	wishlistRepo storage.WishlistStorage
}

func NewAccountService(log *slog.Logger, userRepo storage.UserStorage, orderRepo storage.OrderStorage, wishlistRepo storage.WishlistStorage) AccountService {
	return &accountService{
		log:          log,
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		wishlistRepo: wishlistRepo,
	}
}

// Account — данные личного кабинета
type Account struct {
	User          *models.User           `json:"user"`
	Orders        []*models.Order        `json:"orders"`
	WishlistCount int                    `json:"wishlist_count"`
	Wishlist      []*models.WishlistItem `json:"wishlist"`
}

// OrderDetails — заказ вместе с позициями и историей статусов
type OrderDetails struct {
	Order   *models.Order         `json:"order"`
	Lines   []*models.OrderLine   `json:"lines"`
	History []models.StatusChange `json:"history"`
}

// GetAccount собирает профиль, заказы (новые первыми) и список желаний.
func (s *accountService) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	const op = "service.AccountService.GetAccount"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Debug("getting account")

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}

	count, err := s.wishlistRepo.CountByUser(ctx, userID)
	if err != nil {
		logger.Error("failed to count wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count wishlist: %w", op, err)
	}

	wishlist, err := s.wishlistRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error("failed to get wishlist", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get wishlist: %w", op, err)
	}

	if orders == nil {
		orders = []*models.Order{}
	}
	if wishlist == nil {
		wishlist = []*models.WishlistItem{}
	}
	return &Account{
		User:          user,
		Orders:        orders,
		WishlistCount: count,
		Wishlist:      wishlist,
	}, nil
}

// GetOrder отдаёт заказ только его владельцу; чужой заказ выглядит как несуществующий.
func (s *accountService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetails, error) {
	const op = "service.AccountService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return loadOrderDetails(ctx, logger, s.orderRepo, order, op)
}

func loadOrderDetails(ctx context.Context, logger *slog.Logger, orderRepo storage.OrderStorage, order *models.Order, op string) (*OrderDetails, error) {
	lines, err := orderRepo.GetOrderLines(ctx, order.ID)
	if err != nil {
		logger.Error("failed to get order lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order lines: %w", op, err)
	}

	history, err := orderRepo.GetStatusHistory(ctx, order.ID)
	if err != nil {
		logger.Error("failed to get status history", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get status history: %w", op, err)
	}

	if lines == nil {
		lines = []*models.OrderLine{}
	}
	if history == nil {
		history = []models.StatusChange{}
	}
	return &OrderDetails{Order: order, Lines: lines, History: history}, nil
}
