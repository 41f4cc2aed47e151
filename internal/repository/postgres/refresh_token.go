package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dankrut/callisto-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Save unconditionally makes token the user's current refresh credential.
// Expired superseded rows are pruned on the way; live ones are kept so
// that replays of old values can still be attributed.
func (r *RefreshTokenRepository) Save(ctx context.Context, token model.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < NOW()`,
		token.UserID,
	); err != nil {
		return fmt.Errorf("failed to prune expired refresh tokens: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET is_current = FALSE WHERE user_id = $1 AND is_current`,
		token.UserID,
	); err != nil {
		return fmt.Errorf("failed to supersede refresh token: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, is_current, created_at, expires_at)
         VALUES ($1,$2,TRUE,$3,$4)`,
		token.TokenHash, token.UserID, token.CreatedAt, token.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// Rotate is the compare-and-set write: the previous value is demoted only
// if it is still the current one at write time. Losing the race surfaces
// as ErrRefreshMismatch, never as a silent lost update.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, token model.RefreshToken, prevHash []byte) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET is_current = FALSE
         WHERE user_id = $1 AND token_hash = $2 AND is_current`,
		token.UserID, prevHash,
	)
	if err != nil {
		return fmt.Errorf("failed to demote refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE user_id = $1 AND is_current)`,
			token.UserID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to inspect refresh token state: %w", err)
		}
		if exists {
			return model.ErrRefreshMismatch
		}
		return model.ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, is_current, created_at, expires_at)
         VALUES ($1,$2,TRUE,$3,$4)`,
		token.TokenHash, token.UserID, token.CreatedAt, token.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to store rotated refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Lookup(ctx context.Context, tokenHash []byte) (model.RefreshLookup, error) {
	const query = `
        SELECT user_id, is_current AND expires_at > NOW()
        FROM refresh_tokens WHERE token_hash = $1
    `
	var lookup model.RefreshLookup
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&lookup.UserID, &lookup.Current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshLookup{}, model.ErrNotFound
		}
		return model.RefreshLookup{}, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return lookup, nil
}

func (r *RefreshTokenRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("failed to clear refresh tokens: %w", err)
	}
	return nil
}
