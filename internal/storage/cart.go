package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/shopspring/decimal"
)

// CartStorage описывает методы для работы с корзиной.
type CartStorage interface {
	// AddItem добавляет товар в корзину или увеличивает количество уже добавленного,
	// не выше models.MaxCartQuantity.
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	// ListCart возвращает корзину с текущими ценой и остатком товаров.
	ListCart(ctx context.Context, userID int64) ([]*models.CartItem, error)
	// CartLinesTx читает строки корзины внутри транзакции без блокировки.
	CartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error)
	// ClearCartTx удаляет корзину и возвращает фактически удалённые строки.
	ClearCartTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	query := `INSERT INTO cart (user_id, product_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = LEAST(cart.quantity + EXCLUDED.quantity, $4)`
	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity, models.MaxCartQuantity); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cart SET quantity = $1 WHERE user_id = $2 AND product_id = $3", quantity, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return expectAffected(res, ErrCartItemNotFound)
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cart WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return expectAffected(res, ErrCartItemNotFound)
}

func (r *cartRepository) ListCart(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	// LEFT JOIN: строки с удалёнными товарами тоже показываем, иначе их не увидеть до оформления
	query := `
		SELECT c.product_id, p.name, p.price, p.stock, c.quantity
		FROM cart c
		LEFT JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.product_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		var (
			item  models.CartItem
			name  sql.NullString
			price decimal.NullDecimal
			stock sql.NullInt64
		)
		if err := rows.Scan(&item.ProductID, &name, &price, &stock, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if !name.Valid {
			item.Unavailable = true
		}
		item.Name = name.String
		item.Price = price.Decimal
		item.Stock = int(stock.Int64)
		item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) CartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	rows, err := tx.QueryContext(ctx, "SELECT product_id, quantity FROM cart WHERE user_id = $1 ORDER BY product_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	return collectCartLines(rows, userID)
}

func (r *cartRepository) ClearCartTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	rows, err := tx.QueryContext(ctx, "DELETE FROM cart WHERE user_id = $1 RETURNING product_id, quantity", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return collectCartLines(rows, userID)
}

func collectCartLines(rows *sql.Rows, userID int64) ([]models.CartLine, error) {
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		line := models.CartLine{UserID: userID}
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
