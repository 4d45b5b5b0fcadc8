// AngelaMos | 2026
// provider.go

package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account has been disabled")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrUnknownAccount     = errors.New("no account matches this email")
	ErrNoSession          = errors.New("no active provider session")
)

type Account struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Session is a signed-in provider credential. IDToken authorizes
// account-scoped calls until ExpiresAt; RefreshToken renews it.
type Session struct {
	Account
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return s.IDToken == "" || !now.Before(s.ExpiresAt)
}

// Provider is the managed authentication service.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SendVerificationEmail(ctx context.Context, idToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, idToken, newPassword string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Lookup(ctx context.Context, idToken string) (*Account, error)
}
