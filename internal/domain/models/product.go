package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image,omitempty"`
	Stock       int             `json:"stock"` // остаток, уменьшается только при оформлении заказа
	CreatedAt   time.Time       `json:"created_at"`
}
