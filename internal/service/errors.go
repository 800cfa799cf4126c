package service

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/linemk/storefront/internal/storage"
)

var (
	ErrUnauthenticated    = errors.New("user is not authenticated")
	ErrValidation         = errors.New("validation failed")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrPersistence        = errors.New("persistence failure")
	ErrCartChanged        = fmt.Errorf("%w: cart changed during checkout", ErrPersistence)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)

// ValidationError перечисляет поля, не прошедшие проверку
type ValidationError struct {
	Reason string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StockShortfall - позиция корзины, которую нельзя выкупить
type StockShortfall struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	// Missing - товар удалён из каталога
	Missing bool `json:"missing,omitempty"`
}

type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	ids := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		ids = append(ids, fmt.Sprintf("%d", s.ProductID))
	}
	return "insufficient stock for products " + strings.Join(ids, ", ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsRetryable - повтор того же запроса может пройти.
// Любой сбой хранилища (ErrPersistence) считается повторяемым: транзакция откатана целиком,
// состояние не изменилось. Без обёртки повторяемы потеря соединения и коды из storage.IsRetryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPersistence) || errors.Is(err, storage.ErrStockConflict) {
		return true
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return storage.IsRetryable(err)
}

// domainError - ошибка, которую вызывающий код различает по виду
func domainError(err error) bool {
	for _, target := range []error{ErrUnauthenticated, ErrValidation, ErrEmptyCart, ErrInsufficientStock, ErrPersistence} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
