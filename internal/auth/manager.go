// Package auth issues, verifies, and revokes the two-token credential
// scheme: short-lived signed access tokens and persisted opaque refresh
// tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

var (
	// ErrExpiredToken means the access token's signature is fine but its
	// expiry has passed.
	ErrExpiredToken = errors.New("access token expired")

	// ErrInvalidToken means signature, issuer, or audience verification
	// failed.
	ErrInvalidToken = errors.New("invalid access token")

	// ErrInvalidRefreshToken covers unknown, blacklisted, and expired
	// refresh tokens. The three cases are distinguished only in logs;
	// clients see one outcome (force re-login).
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrUserNotFound means the refresh token was valid but its owning
	// user record is gone.
	ErrUserNotFound = errors.New("user not found")
)

// Claims is the access token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Manager implements the token lifecycle: pair issuance, stateless
// access verification, refresh, and blacklisting.
type Manager struct {
	store      store.Store
	logger     *log.Logger
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager builds a Manager from config. The store holds refresh
// tokens and users; access tokens are never persisted.
func NewManager(s store.Store, cfg model.AuthConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		store:      s,
		logger:     logger,
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour,
	}
}

// IssuePair signs a new access token for the user and persists a fresh
// refresh token. Prior refresh tokens stay valid, so a user can hold
// multiple concurrent sessions.
func (m *Manager) IssuePair(ctx context.Context, user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = m.signAccessToken(user)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = newRefreshTokenValue()
	if err != nil {
		return "", "", err
	}

	err = m.store.CreateRefreshToken(ctx, model.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(m.refreshTTL),
	})
	if err != nil {
		return "", "", fmt.Errorf("persisting refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// VerifyAccess validates an access token statelessly and returns its
// payload. No database lookup is performed.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is not rotated; it stays usable until it expires
// or is blacklisted.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	row, err := m.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.logger.Debug("refresh rejected", "reason", "unknown token")
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("loading refresh token: %w", err)
	}

	now := time.Now().UTC()
	if !row.Valid(now) {
		reason := "expired"
		if row.Blacklisted {
			reason = "blacklisted"
		}
		m.logger.Debug("refresh rejected", "reason", reason, "user_id", row.UserID)
		return "", ErrInvalidRefreshToken
	}

	user, err := m.store.GetUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("loading user %s: %w", row.UserID, err)
	}

	return m.signAccessToken(user)
}

// Logout blacklists the refresh token. Unknown tokens are treated as
// success so logout never fails from the caller's perspective.
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	found, err := m.store.BlacklistRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("blacklisting on logout: %w", err)
	}
	if !found {
		m.logger.Debug("logout for unknown refresh token")
	}
	return nil
}

// BlacklistAllForUser revokes every live refresh token the user owns
// ("sign out everywhere") and returns the count affected.
func (m *Manager) BlacklistAllForUser(ctx context.Context, userID string) (int64, error) {
	count, err := m.store.BlacklistAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	m.logger.Info("revoked all sessions", "user_id", userID, "count", count)
	return count, nil
}

// RefreshTTL reports the configured refresh token lifetime, used for the
// cookie max-age.
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// signAccessToken builds and signs the short-lived bearer credential.
func (m *Manager) signAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// newRefreshTokenValue returns 256 random bits hex-encoded.
func newRefreshTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
