package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/storefront/internal/domain/models"
)

// ProductStorage описывает методы для работы с каталогом и остатками.
type ProductStorage interface {
	ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error)
	// SearchProducts ищет подстроку в названии и описании без учёта регистра.
	SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// LockProductsTx блокирует строки товаров (FOR UPDATE) в порядке возрастания id.
	// Отсутствующие товары просто не попадают в результат.
	LockProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error)
	// DecrementStockTx списывает остаток, не допуская ухода в минус.
	DecrementStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) error
	// RestockTx возвращает остаток; false, если товар уже удалён.
	RestockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) (bool, error)
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, name, description, price, image, stock, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var image sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &image, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	return p, nil
}

func collectProducts(rows *sql.Rows) ([]*models.Product, error) {
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return collectProducts(rows)
}

func (r *productRepository) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := "SELECT " + productColumns + " FROM products WHERE name ILIKE $1 OR description ILIKE $1 ORDER BY name LIMIT $2"
	rows, err := r.db.QueryContext(ctx, q, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return collectProducts(rows)
}

// escapeLike экранирует спецсимволы шаблона LIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) LockProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE"
	rows, err := tx.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	locked := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		locked[p.ID] = p
	}
	return locked, nil
}

func (r *productRepository) DecrementStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1", quantity, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *productRepository) RestockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) (bool, error) {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock + $1 WHERE id = $2", quantity, id)
	if err != nil {
		return false, fmt.Errorf("failed to restock product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
