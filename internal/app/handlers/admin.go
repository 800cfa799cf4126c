package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// UpdateStatusRequest – смена статуса заказа администратором
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed shipped delivered cancelled"`
}

// DashboardHandler – GET /api/admin/dashboard
func DashboardHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DashboardHandler"
		logger := log.With(slog.String("op", op))

		dashboard, err := admin.Dashboard(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, dashboard)
	}
}

// AdminOrdersHandler – GET /api/admin/orders
func AdminOrdersHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := admin.ListOrders(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// AdminOrderHandler – GET /api/admin/orders/{id}
func AdminOrderHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminOrderHandler"
		logger := log.With(slog.String("op", op))

		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		details, err := admin.GetOrder(r.Context(), orderID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, details)
	}
}

// UpdateOrderStatusHandler – PUT /api/admin/orders/{id}/status
func UpdateOrderStatusHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		order, err := admin.UpdateOrderStatus(r.Context(), orderID, models.OrderStatus(req.Status))
		if err != nil {
			writeError(w, logger, err)
			return
		}

		logger.Info("order status updated", slog.Int64("orderID", orderID), slog.String("status", req.Status))
		writeJSON(w, logger, http.StatusOK, order)
	}
}
