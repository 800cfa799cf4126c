package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// CheckoutPreviewHandler – GET /api/checkout, корзина с итогом перед оформлением
func CheckoutPreviewHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutPreviewHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		view, err := checkout.Preview(r.Context(), uid)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, view)
	}
}

// CheckoutHandler – POST /api/checkout
// Поля доставки проверяет сервис, чтобы ответ о недостающих полях был одинаковым для всех клиентов.
func CheckoutHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var shipping models.ShippingInfo
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
			logger.Warn("invalid request: decoding error", slog.Any("error", err))
			badRequest(w, logger, "invalid request")
			return
		}

		placed, err := checkout.PlaceOrder(r.Context(), uid, shipping)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		logger.Info("checkout completed", slog.Int64("userID", uid), slog.Int64("orderID", placed.OrderID))
		writeJSON(w, logger, http.StatusCreated, placed)
	}
}
