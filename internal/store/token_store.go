package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanathshetty444/todoer/internal/model"
)

// CreateRefreshToken inserts a new refresh token row. Every issuance
// creates a fresh row; prior tokens for the user remain untouched.
func (s *SQLiteStore) CreateRefreshToken(ctx context.Context, token model.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, blacklisted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID, token.Token, token.UserID, token.ExpiresAt.UTC(),
		boolToInt(token.Blacklisted), token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks up a refresh token by its raw value.
func (s *SQLiteStore) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var (
		row         model.RefreshToken
		blacklisted int
	)
	err := s.db.QueryRowxContext(ctx,
		"SELECT id, token, user_id, expires_at, blacklisted, created_at FROM refresh_tokens WHERE token = ?",
		token,
	).Scan(&row.ID, &row.Token, &row.UserID, &row.ExpiresAt, &blacklisted, &row.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("refresh token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("getting refresh token: %w", err)
	}
	row.Blacklisted = blacklisted != 0
	return &row, nil
}

// BlacklistRefreshToken marks a token as blacklisted. Returns false when
// the token does not exist; callers treat that as success for idempotent
// logout.
func (s *SQLiteStore) BlacklistRefreshToken(ctx context.Context, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET blacklisted = 1 WHERE token = ?", token)
	if err != nil {
		return false, fmt.Errorf("blacklisting refresh token: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// BlacklistAllForUser blacklists every non-blacklisted token owned by the
// user and returns the number of rows affected.
func (s *SQLiteStore) BlacklistAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET blacklisted = 1 WHERE user_id = ? AND blacklisted = 0",
		userID)
	if err != nil {
		return 0, fmt.Errorf("blacklisting tokens for user %s: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting blacklisted tokens: %w", err)
	}
	return rows, nil
}

// DeleteStaleRefreshTokens removes rows that expired before the given
// instant, blacklisted or not. Used by the periodic cleanup sweep.
func (s *SQLiteStore) DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting stale refresh tokens: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
