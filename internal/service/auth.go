package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	log       *slog.Logger
	userRepo  storage.UserStorage
	adminRepo storage.AdminStorage
	secret    string
	tokenTTL  time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, adminRepo storage.AdminStorage, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:       log,
		userRepo:  userRepo,
		adminRepo: adminRepo,
		secret:    secret,
		tokenTTL:  tokenTTL,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	AdminLogin(ctx context.Context, email, password string) (string, error)
}

// Register создаёт покупателя. Пароль хэшируется через bcrypt (соль добавляется автоматически).
func (a *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "auth.Register"
	email = normalizeEmail(email)
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		PassHash: passHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Warn("user already exists")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login проверяет пароль покупателя и выдаёт токен с ролью user.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"
	email = normalizeEmail(email)
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(ctx, security.Subject{ID: user.ID, Email: user.Email, Role: security.RoleUser}, a.secret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

// AdminLogin - вход в бэк-офис, токен получает роль admin
func (a *AuthService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	const op = "auth.AdminLogin"
	email = normalizeEmail(email)
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	admin, err := a.adminRepo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAdminNotFound) {
			logger.Warn("admin not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get admin", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get admin: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(admin.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(ctx, security.Subject{ID: admin.ID, Email: admin.Email, Role: security.RoleAdmin}, a.secret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("admin logged in", slog.Int64("adminID", admin.ID))
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
