package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

type WishlistRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

type WishlistResponse struct {
	WishID int64 `json:"wish_id"`
}

// AddWishlistHandler – POST /api/wishlist
func AddWishlistHandler(log *slog.Logger, wishlist service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddWishlistHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var req WishlistRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		id, err := wishlist.Add(r.Context(), uid, req.ProductID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, WishlistResponse{WishID: id})
	}
}

// RemoveWishlistHandler – DELETE /api/wishlist/{id}
func RemoveWishlistHandler(log *slog.Logger, wishlist service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveWishlistHandler"
		logger := log.With(slog.String("op", op))

		uid, ok := userID(w, r, logger)
		if !ok {
			return
		}
		wishID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		if err := wishlist.Remove(r.Context(), uid, wishID); err != nil {
			writeError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
