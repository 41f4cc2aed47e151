package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, user User) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	GetByResetToken(ctx context.Context, token string) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error
}

// User represents a stored user with authentication material.
type User struct {
	ID                uuid.UUID
	Username          string
	Email             string
	Phone             string
	PasswordHash      []byte
	Roles             []string
	ResetToken        *string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Identity returns the claims-facing view of the user.
func (u User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
	}
}
