package user

import (
	"context"
	"time"

	"jobportal/internal/common"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           common.UUID `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Location     string      `json:"location,omitempty"`
	Skills       []string    `json:"skills"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Repository interface {
	// Create fails with invalid_state when the email or phone is taken.
	Create(ctx context.Context, u User) (*User, error)
	GetByID(ctx context.Context, id common.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	UpdatePassword(ctx context.Context, id common.UUID, passwordHash string) error
}
