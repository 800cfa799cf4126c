package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role разделяет покупателей и сотрудников бэк-офиса
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Subject - владелец токена
type Subject struct {
	ID    int64
	Email string
	Role  Role
}

// NewToken генерирует JWT-токен для указанного субъекта с заданным временем жизни.
func NewToken(ctx context.Context, subject Subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not set")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", subject.ID),
		"email": subject.Email,
		"role":  string(subject.Role),
		"jti":   uuid.NewString(),
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
