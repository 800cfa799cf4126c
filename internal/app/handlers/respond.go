package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// в ответе об ошибке поля называются так же, как в JSON
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error      string                   `json:"error"`
	Fields     []string                 `json:"fields,omitempty"`
	Shortfalls []service.StockShortfall `json:"shortfalls,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError переводит ошибку сервиса в HTTP-статус.
// Подробности внутренних ошибок клиенту не отдаются.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	resp := ErrorResponse{Error: "internal server error"}
	status := http.StatusInternalServerError

	var (
		verr     *service.ValidationError
		stockErr *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &stockErr):
		status = http.StatusConflict
		resp.Error = "insufficient stock"
		resp.Shortfalls = stockErr.Shortfalls
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = verr.Reason
		resp.Fields = verr.Fields
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		resp.Error = "invalid credentials"
	case errors.Is(err, service.ErrEmptyCart):
		status = http.StatusConflict
		resp.Error = "cart is empty"
	case errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
		resp.Error = "invalid order status transition"
	case errors.Is(err, storage.ErrUserExists):
		status = http.StatusConflict
		resp.Error = "user already exists"
	case errors.Is(err, storage.ErrAlreadyInWishlist):
		status = http.StatusConflict
		resp.Error = "product already in wishlist"
	case errors.Is(err, storage.ErrProductNotFound):
		status = http.StatusNotFound
		resp.Error = "product not found"
	case errors.Is(err, storage.ErrOrderNotFound):
		status = http.StatusNotFound
		resp.Error = "order not found"
	case errors.Is(err, storage.ErrCartItemNotFound):
		status = http.StatusNotFound
		resp.Error = "cart item not found"
	case errors.Is(err, storage.ErrWishlistItemNotFound):
		status = http.StatusNotFound
		resp.Error = "wishlist item not found"
	case errors.Is(err, storage.ErrUserNotFound):
		status = http.StatusNotFound
		resp.Error = "user not found"
	case errors.Is(err, service.ErrPersistence), service.IsRetryable(err):
		status = http.StatusServiceUnavailable
		resp.Error = "temporarily unavailable, retry"
		w.Header().Set("Retry-After", "1")
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err), slog.Int("status", status))
	} else {
		logger.Warn("request rejected", slog.Any("error", err), slog.Int("status", status))
	}
	writeJSON(w, logger, status, resp)
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, msg string) {
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// decodeAndValidate читает JSON-тело и проверяет теги validate
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request: decoding error", slog.Any("error", err))
		badRequest(w, logger, "invalid request")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		logger.Warn("invalid request: validation error", slog.Any("error", err))
		resp := ErrorResponse{Error: "validation error"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Fields = append(resp.Fields, fe.Field())
			}
		}
		writeJSON(w, logger, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// userID извлекает идентификатор из контекста, установленного JWT-middleware
func userID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	return id, true
}

func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, logger, "invalid "+name)
		return 0, false
	}
	return id, true
}
