package models

import "github.com/shopspring/decimal"

// MaxCartQuantity - предел количества одного товара в корзине
const MaxCartQuantity = 1000

// CartLine - строка корзины пользователя, quantity >= 1
type CartLine struct {
	UserID    int64 `json:"-"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartItem - строка корзины вместе с текущими данными товара
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// Unavailable - товар удалён из каталога после добавления в корзину
	Unavailable bool `json:"unavailable,omitempty"`
}
