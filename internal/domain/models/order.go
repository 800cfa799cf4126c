package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid сообщает, известен ли статус
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal - из отменённого и доставленного заказа переходов нет
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

// ShippingInfo - адрес доставки, все поля обязательны
type ShippingInfo struct {
	Address string `json:"address" validate:"required,max=500"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	Zip     string `json:"zip" validate:"required,max=20"`
}

// Order представляет оформленный заказ
type Order struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       OrderStatus     `json:"status"`
	Shipping     ShippingInfo    `json:"shipping"`
	CreatedAt    time.Time       `json:"created_at"`
	CustomerName string          `json:"customer_name,omitempty"` // заполняется через JOIN с users (админка)
	Email        string          `json:"email,omitempty"`
}

// OrderLine - позиция заказа; цена фиксируется в момент покупки
type OrderLine struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"` // заполняется через LEFT JOIN с products
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// StatusChange - запись истории статусов заказа
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// PlacedOrder - результат успешного оформления заказа
type PlacedOrder struct {
	OrderID     int64           `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Lines       []OrderLine     `json:"-"`
}

// DashboardStats - сводка для главной страницы админки
type DashboardStats struct {
	TotalOrders   int             `json:"total_orders"`
	TotalUsers    int             `json:"total_users"`
	TotalProducts int             `json:"total_products"`
	Revenue       decimal.Decimal `json:"revenue"` // без отменённых заказов
}
