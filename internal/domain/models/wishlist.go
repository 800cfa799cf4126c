package models

import "time"

// WishlistItem - товар в списке желаний пользователя
type WishlistItem struct {
	ID        int64     `json:"wish_id"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}
