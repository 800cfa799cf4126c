package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

// RegisterRequest - регистрация покупателя
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthRequest представляет структуру запроса для аутентификации с тегами валидации
type AuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterHandler – POST /api/auth/register
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		user, err := authService.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, RegisterResponse{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}

// AuthHandler – HTTP-обработчик для аутентификации покупателя, POST /api/auth/login
func AuthHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return loginHandler(log, "handlers.AuthHandler", authService.Login)
}

// AdminAuthHandler – вход в бэк-офис, POST /api/admin/login
func AdminAuthHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return loginHandler(log, "handlers.AdminAuthHandler", authService.AdminLogin)
}

type loginFunc func(ctx context.Context, email, password string) (string, error)

func loginHandler(log *slog.Logger, op string, login loginFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		// Вызов бизнес-логики для аутентификации
		token, err := login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, AuthResponse{Token: token})
	}
}
