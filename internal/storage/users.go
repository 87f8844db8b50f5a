package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

const pgUniqueViolation = "23505"

// CreateUser inserts a new user and returns its generated id.
// A duplicate email fails with ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, u *domain.User) error {
	const query = `INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := db.q.QueryRow(ctx, query, u.Username, u.Email, u.PasswordHash).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return coreerrors.ErrEmailTaken
		}

		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetUserByEmail fetches a user by email. Fails with ErrUserNotFound when no
// row exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash FROM users WHERE email = $1`

	return db.scanUser(db.q.QueryRow(ctx, query, email))
}

// GetUserByID fetches a user by id. Fails with ErrUserNotFound when no row
// exists.
func (db *DB) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash FROM users WHERE id = $1`

	return db.scanUser(db.q.QueryRow(ctx, query, id))
}

// DeleteUser removes a user. Preferences and reset tokens cascade in the
// schema.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	tag, err := db.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrUserNotFound
	}

	return nil
}

// UpdatePasswordHash stores a new password hash for the user.
func (db *DB) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	tag, err := db.q.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return coreerrors.ErrUserNotFound
	}

	return nil
}

func (db *DB) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User

	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrUserNotFound
		}

		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
