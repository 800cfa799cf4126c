package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

// WishlistStorage описывает методы для работы со списком желаний.
type WishlistStorage interface {
	Add(ctx context.Context, userID, productID int64) (int64, error)
	// Remove удаляет запись, только если она принадлежит пользователю.
	Remove(ctx context.Context, id, userID int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.WishlistItem, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

type wishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) WishlistStorage {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, productID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO wishlist (user_id, product_id) VALUES ($1, $2) RETURNING id", userID, productID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrAlreadyInWishlist
		}
		return 0, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return id, nil
}

func (r *wishlistRepository) Remove(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wishlist WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return expectAffected(res, ErrWishlistItemNotFound)
}

func (r *wishlistRepository) ListByUser(ctx context.Context, userID int64) ([]*models.WishlistItem, error) {
	query := `
		SELECT w.id, w.created_at, p.id, p.name, p.description, p.price, p.image, p.stock, p.created_at
		FROM wishlist w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var items []*models.WishlistItem
	for rows.Next() {
		var (
			item  models.WishlistItem
			image sql.NullString
			p     = &item.Product
		)
		if err := rows.Scan(&item.ID, &item.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &image, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		if image.Valid {
			p.Image = &image.String
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *wishlistRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wishlist WHERE user_id = $1", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count wishlist: %w", err)
	}
	return count, nil
}
