package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAdmin(t *testing.T) (*Admin, *Sessions) {
	t.Helper()
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	sessions, err := NewSessions(testSecret, time.Hour, NewMemoryTokenRevoker(), SessionOptions{})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	admin, err := NewAdmin("admin", hash, sessions)
	if err != nil {
		t.Fatalf("new admin: %v", err)
	}
	return admin, sessions
}

func TestAdminLoginLogout(t *testing.T) {
	admin, _ := newTestAdmin(t)
	ctx := context.Background()

	token, expires, err := admin.Login("admin", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || expires.IsZero() {
		t.Fatalf("expected token and expiry")
	}
	if !admin.Authenticated(ctx, token) {
		t.Fatalf("expected token to authenticate")
	}
	if err := admin.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if admin.Authenticated(ctx, token) {
		t.Fatalf("expected revoked token to fail")
	}
	if _, err := admin.Verify(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	admin, _ := newTestAdmin(t)
	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "password123"},
		{"", ""},
	} {
		if _, _, err := admin.Login(tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%q,%q): expected ErrInvalidCredentials, got %v", tc.user, tc.pass, err)
		}
	}
}

func TestSessionsRejectTamperedAndExpiredTokens(t *testing.T) {
	now := time.Unix(1700000000, 0)
	sessions, err := NewSessions(testSecret, time.Minute, nil, SessionOptions{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	ctx := context.Background()
	token, _, err := sessions.Issue("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := sessions.Verify(ctx, token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token to fail, got %v", err)
	}

	other, err := NewSessions(strings.Repeat("z", 32), time.Minute, nil, SessionOptions{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	if _, err := other.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign secret to fail, got %v", err)
	}

	now = now.Add(10 * time.Minute)
	if _, err := sessions.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestNewSessionsValidatesSecret(t *testing.T) {
	if _, err := NewSessions("short", time.Hour, nil, SessionOptions{}); err == nil {
		t.Fatalf("expected short secret to fail")
	}
}
