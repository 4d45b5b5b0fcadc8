// AngelaMos | 2026
// firebase.go

package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	identityToolkitHost = "https://identitytoolkit.googleapis.com"
	secureTokenHost     = "https://securetoken.googleapis.com"
)

type FirebaseConfig struct {
	APIKey       string
	EmulatorHost string
	ContinueURL  string
	Timeout      time.Duration
}

type firebaseProvider struct {
	http        *resty.Client
	apiKey      string
	toolkitBase string
	tokenBase   string
	continueURL string
}

// NewFirebase talks to the Identity Toolkit REST API, or to the auth
// emulator when EmulatorHost is set.
func NewFirebase(cfg FirebaseConfig) Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	toolkit, token := identityToolkitHost, secureTokenHost
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		host = strings.TrimRight(host, "/")
		toolkit = host + "/identitytoolkit.googleapis.com"
		token = host + "/securetoken.googleapis.com"
	}

	return &firebaseProvider{
		http:        resty.New().SetTimeout(timeout),
		apiKey:      cfg.APIKey,
		toolkitBase: toolkit,
		tokenBase:   token,
		continueURL: cfg.ContinueURL,
	}
}

type firebaseErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ProviderError is an error code from the provider that has no mapping in
// this package.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %d: %s", e.Status, e.Message)
}

// mapFirebaseError turns "WEAK_PASSWORD : Password should be..." style
// messages into package errors.
func mapFirebaseError(status int, message string) error {
	code := message
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return ErrAccountExists
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidCredentials
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return ErrUnknownAccount
	case "USER_DISABLED":
		return ErrAccountDisabled
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN",
		"INVALID_REFRESH_TOKEN", "USER_DISABLED_REFRESH":
		return ErrNoSession
	default:
		return &ProviderError{Status: status, Message: message}
	}
}

func (f *firebaseProvider) call(
	ctx context.Context,
	endpoint string,
	body any,
	result any,
) error {
	errBody := &firebaseErrorBody{}

	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(body).
		SetResult(result).
		SetError(errBody).
		Post(f.toolkitBase + "/v1/" + endpoint)
	if err != nil {
		return fmt.Errorf("identity %s: %w", endpoint, err)
	}

	if resp.IsError() {
		return fmt.Errorf(
			"identity %s: %w",
			endpoint,
			mapFirebaseError(resp.StatusCode(), errBody.Error.Message),
		)
	}

	return nil
}

type tokenResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`
}

func expiresAt(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}

func (t *tokenResponse) session() *Session {
	return &Session{
		Account: Account{
			UID:           t.LocalID,
			Email:         t.Email,
			DisplayName:   t.DisplayName,
			EmailVerified: t.EmailVerified,
		},
		IDToken:      t.IDToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expiresAt(t.ExpiresIn),
	}
}

func (f *firebaseProvider) SignUp(
	ctx context.Context,
	email, password, displayName string,
) (*Session, error) {
	created := &tokenResponse{}
	err := f.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, created)
	if err != nil {
		return nil, err
	}

	session := created.session()
	if displayName == "" {
		return session, nil
	}

	updated := &tokenResponse{}
	err = f.call(ctx, "accounts:update", map[string]any{
		"idToken":           session.IDToken,
		"displayName":       displayName,
		"returnSecureToken": true,
	}, updated)
	if err != nil {
		return nil, fmt.Errorf("set display name: %w", err)
	}

	session.DisplayName = displayName
	if updated.IDToken != "" {
		session.IDToken = updated.IDToken
		session.RefreshToken = updated.RefreshToken
		session.ExpiresAt = expiresAt(updated.ExpiresIn)
	}

	return session, nil
}

func (f *firebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp := &tokenResponse{}
	err := f.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, resp)
	if err != nil {
		return nil, err
	}

	session := resp.session()

	account, err := f.Lookup(ctx, session.IDToken)
	if err != nil {
		return nil, err
	}
	session.Account = *account

	return session, nil
}

func (f *firebaseProvider) SendVerificationEmail(ctx context.Context, idToken string) error {
	if idToken == "" {
		return ErrNoSession
	}

	body := map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}
	if f.continueURL != "" {
		body["continueUrl"] = f.continueURL
	}

	return f.call(ctx, "accounts:sendOobCode", body, &struct{}{})
}

func (f *firebaseProvider) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	if f.continueURL != "" {
		body["continueUrl"] = f.continueURL
	}

	return f.call(ctx, "accounts:sendOobCode", body, &struct{}{})
}

func (f *firebaseProvider) UpdatePassword(
	ctx context.Context,
	idToken, newPassword string,
) (*Session, error) {
	if idToken == "" {
		return nil, ErrNoSession
	}

	resp := &tokenResponse{}
	err := f.call(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"password":          newPassword,
		"returnSecureToken": true,
	}, resp)
	if err != nil {
		return nil, err
	}

	return resp.session(), nil
}

type secureTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (f *firebaseProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNoSession
	}

	result := &secureTokenResponse{}
	errBody := &firebaseErrorBody{}

	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(result).
		SetError(errBody).
		Post(f.tokenBase + "/v1/token")
	if err != nil {
		return nil, fmt.Errorf("identity token refresh: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf(
			"identity token refresh: %w",
			mapFirebaseError(resp.StatusCode(), errBody.Error.Message),
		)
	}

	session := &Session{
		Account:      Account{UID: result.UserID},
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    expiresAt(result.ExpiresIn),
	}

	account, err := f.Lookup(ctx, session.IDToken)
	if err != nil {
		return nil, err
	}
	session.Account = *account

	return session, nil
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
		Disabled      bool   `json:"disabled"`
	} `json:"users"`
}

func (f *firebaseProvider) Lookup(ctx context.Context, idToken string) (*Account, error) {
	if idToken == "" {
		return nil, ErrNoSession
	}

	resp := &lookupResponse{}
	if err := f.call(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("identity lookup: %w", ErrNoSession)
	}

	u := resp.Users[0]
	if u.Disabled {
		return nil, fmt.Errorf("identity lookup: %w", ErrAccountDisabled)
	}

	return &Account{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
	}, nil
}
