package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/events"
	"github.com/linemk/storefront/internal/storage"
)

const (
	recentOrdersLimit = 5
	adminOrdersLimit  = 500
)

// AdminService - управление заказами в бэк-офисе
type AdminService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*OrderDetails, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error)
}

type Dashboard struct {
	Stats        *models.DashboardStats `json:"stats"`
	RecentOrders []*models.Order        `json:"recent_orders"`
}

type adminService struct {
	log         *slog.Logger
	db          storage.TxBeginner
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
	publisher   events.Publisher
	opts        CheckoutOptions
}

func NewAdminService(
	log *slog.Logger,
	db storage.TxBeginner,
	orderRepo storage.OrderStorage,
	productRepo storage.ProductStorage,
	publisher events.Publisher,
	opts CheckoutOptions,
) AdminService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &adminService{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		opts:        opts,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "service.AdminService.Dashboard"

	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		s.log.Error("failed to get stats", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recent, err := s.orderRepo.ListOrders(ctx, recentOrdersLimit)
	if err != nil {
		s.log.Error("failed to get recent orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if recent == nil {
		recent = []*models.Order{}
	}
	return &Dashboard{Stats: stats, RecentOrders: recent}, nil
}

func (s *adminService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.AdminService.ListOrders"

	orders, err := s.orderRepo.ListOrders(ctx, adminOrdersLimit)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (s *adminService) GetOrder(ctx context.Context, orderID int64) (*OrderDetails, error) {
	const op = "service.AdminService.GetOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, storage.ErrOrderNotFound) {
			logger.Error("failed to get order", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return loadOrderDetails(ctx, logger, s.orderRepo, order, op)
}

// UpdateOrderStatus меняет статус заказа.
// Из cancelled и delivered переходов нет. Отмена возвращает товары на склад
// в той же транзакции: сначала блокируется заказ, затем товары по возрастанию id.
func (s *adminService) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	const op = "service.AdminService.UpdateOrderStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", string(status)))

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Reason: "unknown order status", Fields: []string{"status"}})
	}

	if s.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TxTimeout)
		defer cancel()
	}

	var updated *models.Order
	err := storage.RunInTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := storage.SetLockTimeout(ctx, tx, s.opts.LockTimeout); err != nil {
			return err
		}

		order, err := s.orderRepo.LockOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() || order.Status == status {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}

		if status == models.OrderStatusCancelled {
			if err := s.restockTx(ctx, tx, logger, orderID); err != nil {
				return err
			}
		}

		if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, status); err != nil {
			return err
		}
		if err := s.orderRepo.AddStatusHistoryTx(ctx, tx, orderID, status); err != nil {
			return err
		}

		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("status update rejected", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("order status updated")

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, events.OrderStatusChanged(updated.ID, string(status), updated.TotalAmount)); err != nil {
		logger.Warn("failed to publish event", slog.Any("error", err))
	}
	return updated, nil
}

func (s *adminService) restockTx(ctx context.Context, tx *sql.Tx, logger *slog.Logger, orderID int64) error {
	lines, err := s.orderRepo.OrderLinesTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked, err := s.productRepo.LockProductsTx(ctx, tx, ids)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, ok := locked[line.ProductID]; !ok {
			logger.Warn("product removed, stock not restored", slog.Int64("productID", line.ProductID))
			continue
		}
		restocked, err := s.productRepo.RestockTx(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if !restocked {
			logger.Warn("product row not updated, stock not restored", slog.Int64("productID", line.ProductID))
		}
	}
	return nil
}
