package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

// AdminStorage описывает работу с учётными записями бэк-офиса
type AdminStorage interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	// UpsertAdmin создаёт администратора или обновляет имя и пароль существующего
	UpsertAdmin(ctx context.Context, admin *models.Admin) (*models.Admin, error)
}

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminStorage {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, email, pass_hash FROM admins WHERE email = $1", email)
	if err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PassHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (r *adminRepository) UpsertAdmin(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	query := `INSERT INTO admins (name, email, pass_hash) VALUES ($1, $2, $3)
	          ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, pass_hash = EXCLUDED.pass_hash
	          RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, admin.Name, admin.Email, admin.PassHash).Scan(&admin.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert admin: %w", err)
	}
	return admin, nil
}
