package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/events"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

const publishTimeout = 5 * time.Second

type CheckoutService interface {
	// PlaceOrder превращает корзину пользователя в заказ одной транзакцией.
	PlaceOrder(ctx context.Context, userID int64, shipping models.ShippingInfo) (*models.PlacedOrder, error)
	// Preview показывает корзину с текущими ценами без блокировок.
	Preview(ctx context.Context, userID int64) (*CartView, error)
}

// CheckoutOptions ограничивают время транзакции и ожидание блокировок
type CheckoutOptions struct {
	LockTimeout time.Duration
	TxTimeout   time.Duration
}

type checkoutService struct {
	log         *slog.Logger
	db          storage.TxBeginner
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	publisher   events.Publisher
	metrics     *metrics.Metrics
	opts        CheckoutOptions
}

func NewCheckoutService(
	log *slog.Logger,
	db storage.TxBeginner,
	cartRepo storage.CartStorage,
	productRepo storage.ProductStorage,
	orderRepo storage.OrderStorage,
	publisher events.Publisher,
	m *metrics.Metrics,
	opts CheckoutOptions,
) CheckoutService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &checkoutService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		publisher:   publisher,
		metrics:     m,
		opts:        opts,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках используем имена полей из json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// PlaceOrder оформляет заказ.
// Товары блокируются в порядке возрастания id, остаток проверяется уже после блокировки,
// поэтому параллельные оформления не могут продать больше, чем есть на складе.
// При любой ошибке транзакция откатывается целиком: ни заказа, ни списания, корзина не тронута.
func (s *checkoutService) PlaceOrder(ctx context.Context, userID int64, shipping models.ShippingInfo) (*models.PlacedOrder, error) {
	const op = "service.CheckoutService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	shipping = normalizeShipping(shipping)
	if err := validateShipping(shipping); err != nil {
		logger.Warn("invalid shipping info", slog.Any("error", err))
		s.metrics.ObserveCheckout(metrics.OutcomeValidation, 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	txCtx := ctx
	if s.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.opts.TxTimeout)
		defer cancel()
	}

	var placed *models.PlacedOrder
	err := storage.RunInTx(txCtx, s.db, nil, func(tx *sql.Tx) error {
		var err error
		placed, err = s.placeOrderTx(txCtx, tx, userID, shipping)
		return err
	})
	if err != nil {
		if !domainError(err) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		s.metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))

		switch {
		case errors.Is(err, ErrPersistence):
			logger.Error("checkout failed", slog.Any("error", err), slog.Bool("retryable", IsRetryable(err)))
		default:
			logger.Warn("checkout rejected", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ObserveCheckout(metrics.OutcomeSuccess, time.Since(start))

	logger.Info("order placed",
		slog.Int64("orderID", placed.OrderID),
		slog.String("total", placed.TotalAmount.StringFixed(2)),
		slog.Int("lines", len(placed.Lines)),
	)

	s.publish(ctx, logger, events.OrderPlaced(placed.OrderID, userID, placed.TotalAmount))
	return placed, nil
}

func (s *checkoutService) placeOrderTx(ctx context.Context, tx *sql.Tx, userID int64, shipping models.ShippingInfo) (*models.PlacedOrder, error) {
	if err := storage.SetLockTimeout(ctx, tx, s.opts.LockTimeout); err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.CartLinesTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, &ValidationError{
				Reason: "invalid cart quantity",
				Fields: []string{fmt.Sprintf("product %d", line.ProductID)},
			}
		}
		ids = append(ids, line.ProductID)
	}

	locked, err := s.productRepo.LockProductsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	var (
		shortfalls []StockShortfall
		total      = decimal.Zero
		orderLines = make([]models.OrderLine, 0, len(lines))
	)
	for _, line := range lines {
		p, ok := locked[line.ProductID]
		if !ok {
			// товар удалили после добавления в корзину
			shortfalls = append(shortfalls, StockShortfall{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Missing:   true,
			})
			continue
		}
		if line.Quantity > p.Stock {
			shortfalls = append(shortfalls, StockShortfall{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Stock,
			})
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		orderLines = append(orderLines, models.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       p.Price,
		})
	}
	if len(shortfalls) > 0 {
		return nil, &InsufficientStockError{Shortfalls: shortfalls}
	}

	order := &models.Order{
		UserID:      userID,
		TotalAmount: total,
		Status:      models.OrderStatusCompleted,
		Shipping:    shipping,
	}
	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.AddStatusHistoryTx(ctx, tx, order.ID, order.Status); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderLinesTx(ctx, tx, order.ID, orderLines); err != nil {
		return nil, err
	}
	for _, line := range orderLines {
		if err := s.productRepo.DecrementStockTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, err)
		}
	}

	cleared, err := s.cartRepo.ClearCartTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !sameLines(lines, cleared) {
		return nil, ErrCartChanged
	}

	for i := range orderLines {
		orderLines[i].OrderID = order.ID
	}
	return &models.PlacedOrder{
		OrderID:     order.ID,
		TotalAmount: total,
		CreatedAt:   order.CreatedAt,
		Lines:       orderLines,
	}, nil
}

func (s *checkoutService) Preview(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CheckoutService.Preview"

	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	items, err := s.cartRepo.ListCart(ctx, userID)
	if err != nil {
		s.log.Error("failed to load cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return newCartView(items), nil
}

func (s *checkoutService) publish(ctx context.Context, logger *slog.Logger, e events.Event) {
	// заказ уже зафиксирован, отмена запроса не должна терять событие
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event", slog.String("type", e.Type), slog.Any("error", err))
	}
}

func normalizeShipping(in models.ShippingInfo) models.ShippingInfo {
	return models.ShippingInfo{
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Zip:     strings.TrimSpace(in.Zip),
	}
}

func validateShipping(in models.ShippingInfo) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	reason := "missing shipping fields"
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			reason = "invalid shipping fields"
		}
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Reason: reason, Fields: fields}
}

// sameLines сравнивает корзину, по которой собран заказ, с тем, что было удалено
func sameLines(ordered, cleared []models.CartLine) bool {
	if len(ordered) != len(cleared) {
		return false
	}
	want := make(map[int64]int, len(ordered))
	for _, l := range ordered {
		want[l.ProductID] = l.Quantity
	}
	for _, l := range cleared {
		if q, ok := want[l.ProductID]; !ok || q != l.Quantity {
			return false
		}
	}
	return true
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.Is(err, ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	default:
		return metrics.OutcomeError
	}
}
