// AngelaMos | 2026
// local.go

package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
)

const (
	DefaultMinPasswordLength = 6
	localTokenTTL            = time.Hour
)

type MessageKind string

const (
	MessageVerifyEmail   MessageKind = "VERIFY_EMAIL"
	MessagePasswordReset MessageKind = "PASSWORD_RESET"
)

// Message is an email the local provider would have sent.
type Message struct {
	Kind   MessageKind
	Email  string
	SentAt time.Time
}

type localAccount struct {
	Account
	passwordHash string
	disabled     bool
}

type localToken struct {
	uid       string
	expiresAt time.Time
}

// Local is an in-process Provider for development and tests.
type Local struct {
	mu          sync.Mutex
	minPassword int
	accounts    map[string]*localAccount
	byUID       map[string]*localAccount
	idTokens    map[string]localToken
	refresh     map[string]string
	outbox      []Message
	now         func() time.Time
}

func NewLocal(minPasswordLength int) *Local {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &Local{
		minPassword: minPasswordLength,
		accounts:    make(map[string]*localAccount),
		byUID:       make(map[string]*localAccount),
		idTokens:    make(map[string]localToken),
		refresh:     make(map[string]string),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (l *Local) issue(acct *localAccount) (*Session, error) {
	idToken, err := core.GenerateSecureToken(24)
	if err != nil {
		return nil, err
	}
	refreshToken, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := l.now().Add(localTokenTTL)
	l.idTokens[idToken] = localToken{uid: acct.UID, expiresAt: expires}
	l.refresh[refreshToken] = acct.UID

	return &Session{
		Account:      acct.Account,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expires,
	}, nil
}

func (l *Local) resolve(idToken string) (*localAccount, error) {
	tok, ok := l.idTokens[idToken]
	if !ok || !l.now().Before(tok.expiresAt) {
		return nil, ErrNoSession
	}
	acct, ok := l.byUID[tok.uid]
	if !ok {
		return nil, ErrNoSession
	}
	if acct.disabled {
		return nil, ErrAccountDisabled
	}
	return acct, nil
}

func (l *Local) SignUp(_ context.Context, email, password, displayName string) (*Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < l.minPassword {
		return nil, ErrWeakPassword
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[email]; exists {
		return nil, ErrAccountExists
	}

	acct := &localAccount{
		Account: Account{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
		},
		passwordHash: hash,
	}
	l.accounts[email] = acct
	l.byUID[acct.UID] = acct

	return l.issue(acct)
}

func (l *Local) SignIn(_ context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	l.mu.Lock()
	acct := l.accounts[email]
	hash := ""
	if acct != nil {
		hash = acct.passwordHash
	}
	l.mu.Unlock()

	if !core.VerifyPasswordTimingSafe(password, hash) {
		return nil, ErrInvalidCredentials
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if acct.disabled {
		return nil, ErrAccountDisabled
	}
	return l.issue(acct)
}

func (l *Local) SendVerificationEmail(_ context.Context, idToken string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.resolve(idToken)
	if err != nil {
		return err
	}

	l.outbox = append(l.outbox, Message{
		Kind:   MessageVerifyEmail,
		Email:  acct.Email,
		SentAt: l.now(),
	})
	return nil
}

func (l *Local) SendPasswordReset(_ context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[email]; !ok {
		return ErrUnknownAccount
	}

	l.outbox = append(l.outbox, Message{
		Kind:   MessagePasswordReset,
		Email:  email,
		SentAt: l.now(),
	})
	return nil
}

func (l *Local) UpdatePassword(_ context.Context, idToken, newPassword string) (*Session, error) {
	if len(newPassword) < l.minPassword {
		return nil, ErrWeakPassword
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.resolve(idToken)
	if err != nil {
		return nil, err
	}

	acct.passwordHash = hash
	for token, uid := range l.refresh {
		if uid == acct.UID {
			delete(l.refresh, token)
		}
	}

	return l.issue(acct)
}

func (l *Local) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	uid, ok := l.refresh[refreshToken]
	if !ok {
		return nil, ErrNoSession
	}
	acct, ok := l.byUID[uid]
	if !ok {
		return nil, ErrNoSession
	}
	if acct.disabled {
		return nil, ErrAccountDisabled
	}

	delete(l.refresh, refreshToken)
	return l.issue(acct)
}

func (l *Local) Lookup(_ context.Context, idToken string) (*Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.resolve(idToken)
	if err != nil {
		return nil, err
	}
	out := acct.Account
	return &out, nil
}

// Verify marks the account's email as verified, standing in for the user
// following the emailed link.
func (l *Local) Verify(email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[normalizeEmail(email)]
	if !ok {
		return ErrUnknownAccount
	}
	acct.EmailVerified = true
	return nil
}

func (l *Local) Disable(email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[normalizeEmail(email)]
	if !ok {
		return ErrUnknownAccount
	}
	acct.disabled = true
	return nil
}

func (l *Local) Outbox() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.outbox...)
}
