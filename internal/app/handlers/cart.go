package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

// AddCartItemRequest – добавление товара в корзину
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=1000"`
}

// UpdateCartItemRequest – 0 удаляет строку корзины
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=1000"`
}

// GetCartHandler – GET /api/cart
func GetCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		view, err := cart.View(r.Context(), uid)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, view)
	}
}

// AddCartItemHandler – POST /api/cart/items
func AddCartItemHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartItemHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var req AddCartItemRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		if err := cart.Add(r.Context(), uid, req.ProductID, req.Quantity); err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateCartItemHandler – PUT /api/cart/items/{productID}
func UpdateCartItemHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "productID")
		if !ok {
			return
		}

		var req UpdateCartItemRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		if err := cart.Update(r.Context(), uid, productID, *req.Quantity); err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveCartItemHandler – DELETE /api/cart/items/{productID}
func RemoveCartItemHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "productID")
		if !ok {
			return
		}

		if err := cart.Remove(r.Context(), uid, productID); err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
