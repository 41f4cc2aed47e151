package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dankrut/callisto-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, phone, password_hash, roles, reset_token, reset_token_expires, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	const query = `
        INSERT INTO users (id, username, email, phone, password_hash, roles, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
        RETURNING created_at, updated_at
    `

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if len(user.Roles) == 0 {
		user.Roles = []string{model.RoleUser}
	}

	err := r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.Phone, user.PasswordHash, user.Roles,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
}

func (r *UserRepository) Update(ctx context.Context, user model.User) error {
	const query = `
        UPDATE users SET username = $2, email = $3, phone = $4, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, user.ID, user.Username, user.Email, user.Phone)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	const query = `
        UPDATE users SET reset_token = $2, reset_token_expires = $3, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, token, expires)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	const query = `
        UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Roles,
		&u.ResetToken, &u.ResetTokenExpires, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
