package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

// UpsertResetToken stores the reset token for a user, replacing any earlier
// one. A user holds at most one active token.
func (db *DB) UpsertResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	const query = `INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`

	_, err := db.q.Exec(ctx, query, token.UserID, token.Token, toTimestamptz(token.ExpiresAt))
	if err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}

	return nil
}

// GetResetToken looks a token up by its value.
func (db *DB) GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	const query = `SELECT user_id, token, expires_at FROM password_reset_tokens WHERE token = $1`

	var out domain.PasswordResetToken

	err := db.q.QueryRow(ctx, query, token).Scan(&out.UserID, &out.Token, &out.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrResetTokenNotFound
		}

		return nil, fmt.Errorf("get reset token: %w", err)
	}

	return &out, nil
}

// DeleteResetToken removes a user's token. Called after a successful reset
// and when an expired token is presented.
func (db *DB) DeleteResetToken(ctx context.Context, userID string) error {
	const query = `DELETE FROM password_reset_tokens WHERE user_id = $1`

	if _, err := db.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}

	return nil
}
