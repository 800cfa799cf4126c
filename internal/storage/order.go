package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ и заполняет его ID и CreatedAt.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// CreateOrderLinesTx вставляет все позиции заказа одним запросом.
	CreateOrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []models.OrderLine) error
	AddStatusHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus) error
	// LockOrderTx читает заказ с блокировкой строки (FOR UPDATE).
	LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error
	OrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]*models.OrderLine, error)

	// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrderForUser возвращает заказ, только если он принадлежит пользователю.
	GetOrderForUser(ctx context.Context, id, userID int64) (*models.Order, error)
	// GetOrderByID возвращает заказ вместе с именем и email покупателя.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error)
	GetStatusHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error)
	// ListOrders возвращает последние заказы всех пользователей (админка).
	ListOrders(ctx context.Context, limit int) ([]*models.Order, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const orderColumns = "o.id, o.user_id, o.total_amount, o.status, o.address, o.city, o.state, o.zip, o.created_at"

func scanOrder(row rowScanner, extra ...any) (*models.Order, error) {
	o := &models.Order{}
	dest := []any{&o.ID, &o.UserID, &o.TotalAmount, &o.Status,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.State, &o.Shipping.Zip, &o.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (user_id, total_amount, status, address, city, state, zip)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.TotalAmount, order.Status,
		order.Shipping.Address, order.Shipping.City, order.Shipping.State, order.Shipping.Zip,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateOrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(lines)*4)
	)
	sb.WriteString("INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, orderID, line.ProductID, line.Quantity, line.Price)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to create order lines: %w", err)
	}
	return nil
}

func (r *orderRepository) AddStatusHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO order_status_history (order_id, status) VALUES ($1, $2)", orderID, status)
	if err != nil {
		return fmt.Errorf("failed to add status history: %w", err)
	}
	return nil
}

func (r *orderRepository) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders o WHERE o.id = $1 FOR UPDATE", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.OrderStatus) error {
	res, err := tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectAffected(res, ErrOrderNotFound)
}

func (r *orderRepository) OrderLinesTx(ctx context.Context, tx *sql.Tx, orderID int64) ([]*models.OrderLine, error) {
	return queryOrderLines(ctx, tx, orderID)
}

func (r *orderRepository) GetOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	return queryOrderLines(ctx, r.db, orderID)
}

func queryOrderLines(ctx context.Context, q queryer, orderID int64) ([]*models.OrderLine, error) {
	// товар мог быть удалён после покупки, цена в позиции от этого не зависит
	query := `
		SELECT oi.order_id, oi.product_id, COALESCE(p.name, 'deleted product'), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.OrderLine
	for rows.Next() {
		line := &models.OrderLine{}
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders o WHERE o.id = $1 AND o.user_id = $2", id, userID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	query := "SELECT " + orderColumns + ", u.name, u.email FROM orders o JOIN users u ON u.id = o.user_id WHERE o.id = $1"
	row := r.db.QueryRowContext(ctx, query, id)

	var name, email string
	o, err := scanOrder(row, &name, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.CustomerName, o.Email = name, email
	return o, nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]models.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, created_at FROM order_status_history WHERE order_id = $1 ORDER BY created_at, id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var ch models.StatusChange
		if err := rows.Scan(&ch.Status, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var name, email string
		o, err := scanOrder(rows, &name, &email)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.CustomerName, o.Email = name, email
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> $1)`
	stats := &models.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, models.OrderStatusCancelled).
		Scan(&stats.TotalOrders, &stats.TotalUsers, &stats.TotalProducts, &stats.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}
