package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
	"github.com/sanathshetty444/todoer/tests/testutil"
)

func testAuthConfig() model.AuthConfig {
	return model.AuthConfig{
		JWTSecret:             "test-secret-not-for-production",
		Issuer:                "todoer",
		Audience:              "todoer-web",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
	}
}

func newTestManager(t *testing.T, cfg model.AuthConfig) (*auth.Manager, store.Store) {
	t.Helper()
	s := testutil.NewTestStore(t)
	return auth.NewManager(s, cfg, nil), s
}

func TestIssueAndVerifyPair(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "pair@example.com")

	access, refresh, err := m.IssuePair(ctx, user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("issued empty token(s)")
	}

	claims, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("claims = %s/%s, want %s/%s", claims.UserID, claims.Email, user.ID, user.Email)
	}

	// The refresh token is persisted and live.
	row, err := s.GetRefreshToken(ctx, refresh)
	if err != nil {
		t.Fatalf("load refresh token: %v", err)
	}
	if !row.Valid(time.Now().UTC()) {
		t.Error("freshly issued refresh token is not valid")
	}
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(t, testAuthConfig())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.VerifyAccess(token); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("VerifyAccess(%q) = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenTTLMinutes = -1
	m, s := newTestManager(t, cfg)
	user := testutil.CreateTestUser(t, s, "expired@example.com")

	access, _, err := m.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := m.VerifyAccess(access); !errors.Is(err, auth.ErrExpiredToken) {
		t.Errorf("expired token: err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyAccessWrongSecret(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	user := testutil.CreateTestUser(t, s, "forged@example.com")

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "a-different-secret"
	forger := auth.NewManager(s, otherCfg, nil)

	access, _, err := forger.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := m.VerifyAccess(access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("forged token: err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshReturnsNewAccessToken(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "refresh@example.com")

	_, refresh, err := m.IssuePair(ctx, user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	access, err := m.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify refreshed token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("refreshed claims user = %s, want %s", claims.UserID, user.ID)
	}

	// The refresh token is not rotated: a second exchange succeeds.
	if _, err := m.Refresh(ctx, refresh); err != nil {
		t.Errorf("second refresh with same token: %v", err)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	m, _ := newTestManager(t, testAuthConfig())

	_, err := m.Refresh(context.Background(), "deadbeef")
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Errorf("unknown token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsBlacklistedToken(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "blacklisted@example.com")

	_, refresh, err := m.IssuePair(ctx, user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if err := m.Logout(ctx, refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = m.Refresh(ctx, refresh)
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Errorf("blacklisted token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "stale@example.com")

	err := s.CreateRefreshToken(ctx, model.RefreshToken{
		Token:     "expiredtokenvalue",
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	_, err = m.Refresh(ctx, "expiredtokenvalue")
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "gone@example.com")

	_, refresh, err := m.IssuePair(ctx, user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if err := s.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	_, err = m.Refresh(ctx, refresh)
	// Cascade deletes the refresh token with the user, so the rejection
	// surfaces as an unknown token.
	if !errors.Is(err, auth.ErrInvalidRefreshToken) && !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("deleted user: err = %v, want ErrInvalidRefreshToken or ErrUserNotFound", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "logout@example.com")

	_, refresh, err := m.IssuePair(ctx, user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// Known, already-blacklisted, unknown, and empty all succeed.
	for i := 0; i < 2; i++ {
		if err := m.Logout(ctx, refresh); err != nil {
			t.Errorf("logout attempt %d: %v", i+1, err)
		}
	}
	if err := m.Logout(ctx, "never-issued"); err != nil {
		t.Errorf("logout with unknown token: %v", err)
	}
	if err := m.Logout(ctx, ""); err != nil {
		t.Errorf("logout with empty token: %v", err)
	}
}

func TestBlacklistAllForUser(t *testing.T) {
	m, s := newTestManager(t, testAuthConfig())
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s, "everywhere@example.com")
	bystander := testutil.CreateTestUser(t, s, "bystander@example.com")

	var refreshes []string
	for i := 0; i < 3; i++ {
		_, refresh, err := m.IssuePair(ctx, user)
		if err != nil {
			t.Fatalf("issue pair %d: %v", i, err)
		}
		refreshes = append(refreshes, refresh)
	}
	_, otherRefresh, err := m.IssuePair(ctx, bystander)
	if err != nil {
		t.Fatalf("issue bystander pair: %v", err)
	}

	count, err := m.BlacklistAllForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("blacklist all: %v", err)
	}
	if count != 3 {
		t.Errorf("revoked count = %d, want 3", count)
	}

	for i, refresh := range refreshes {
		if _, err := m.Refresh(ctx, refresh); !errors.Is(err, auth.ErrInvalidRefreshToken) {
			t.Errorf("session %d still refreshes after revoke-all: %v", i, err)
		}
	}

	// The bystander's session is untouched.
	if _, err := m.Refresh(ctx, otherRefresh); err != nil {
		t.Errorf("bystander refresh: %v", err)
	}
}
