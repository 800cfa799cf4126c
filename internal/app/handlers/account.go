package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

// AccountHandler – GET /api/account
func AccountHandler(log *slog.Logger, account service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AccountHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		resp, err := account.GetAccount(r.Context(), uid)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// AccountOrderHandler – GET /api/account/orders/{id}, чужой заказ выглядит как несуществующий
func AccountOrderHandler(log *slog.Logger, account service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AccountOrderHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}
		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		details, err := account.GetOrder(r.Context(), uid, orderID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, details)
	}
}
