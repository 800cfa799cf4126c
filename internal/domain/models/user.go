package models

import "time"

// User представляет покупателя
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin представляет сотрудника бэк-офиса
type Admin struct {
	ID       int64
	Name     string
	Email    string
	PassHash []byte
}
