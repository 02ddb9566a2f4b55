package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Admin guards the dashboard with one configured credential pair.
type Admin struct {
	username     string
	passwordHash string
	sessions     *Sessions
}

// NewAdmin builds the admin authenticator. passwordHash is a bcrypt hash.
func NewAdmin(username, passwordHash string, sessions *Sessions) (*Admin, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("admin username required")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, errors.New("admin password hash required")
	}
	if sessions == nil {
		return nil, errors.New("sessions required")
	}
	return &Admin{username: strings.TrimSpace(username), passwordHash: passwordHash, sessions: sessions}, nil
}

// Login checks the credentials and issues a session token.
func (a *Admin) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	// bcrypt runs even when the username is wrong.
	passOK := CheckPassword(password, a.passwordHash)
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.sessions.Issue(a.username)
}

// Logout revokes token.
func (a *Admin) Logout(ctx context.Context, token string) error {
	return a.sessions.Revoke(ctx, token)
}

// Authenticated reports whether token is a live admin session.
func (a *Admin) Authenticated(ctx context.Context, token string) bool {
	subject, err := a.sessions.Verify(ctx, token)
	return err == nil && subject == a.username
}

// Verify returns the subject of a live session.
func (a *Admin) Verify(ctx context.Context, token string) (string, error) {
	subject, err := a.sessions.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	if subject != a.username {
		return "", ErrInvalidToken
	}
	return subject, nil
}
