// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/identity"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

var (
	ErrTokenReuse           = errors.New("token reuse detected")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
)

// ProfileStore is the slice of the profile service the gateway keeps in
// sync with the identity provider.
type ProfileStore interface {
	Create(ctx context.Context, userID, email, name string) error
	EnsureProfile(ctx context.Context, userID, email, name string) error
	MirrorEmailVerified(ctx context.Context, userID string, verified bool) error
}

type Service struct {
	repo        Repository
	jwt         *JWTManager
	provider    identity.Provider
	profiles    ProfileStore
	revocations RevocationList
	logger      *slog.Logger
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	provider identity.Provider,
	profiles ProfileStore,
	revocations RevocationList,
	logger *slog.Logger,
) *Service {
	if revocations == nil {
		revocations = NewMemoryRevocations()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		jwt:         jwt,
		provider:    provider,
		profiles:    profiles,
		revocations: revocations,
		logger:      logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the provider identity, asks the provider to send the
// verification email and creates the profile. Profile creation is best
// effort; a missing profile is created lazily on the next profile read.
func (s *Service) SignUp(
	ctx context.Context,
	req SignUpRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	session, err := s.provider.SignUp(ctx, normalizeEmail(req.Email), req.Password, req.Name)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	if err := s.provider.SendVerificationEmail(ctx, session.IDToken); err != nil {
		s.logger.Warn("send verification email failed",
			"user_id", session.UID,
			"error", err,
		)
	}

	if err := s.profiles.Create(ctx, session.UID, session.Email, req.Name); err != nil {
		s.logger.Error("create profile after sign up failed",
			"user_id", session.UID,
			"error", err,
		)
	}

	if session.DisplayName == "" {
		session.DisplayName = req.Name
	}

	resp, err := s.issue(ctx, &session.Account, session.RefreshToken, userAgent, ipAddress, "", "")
	if err != nil {
		return nil, err
	}
	resp.NeedsVerification = true

	return resp, nil
}

func (s *Service) SignIn(
	ctx context.Context,
	req SignInRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	session, err := s.provider.SignIn(ctx, normalizeEmail(req.Email), req.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s.syncProfile(ctx, &session.Account)

	resp, err := s.issue(ctx, &session.Account, session.RefreshToken, userAgent, ipAddress, "", "")
	if err != nil {
		return nil, err
	}
	resp.NeedsVerification = !session.EmailVerified

	return resp, nil
}

func (s *Service) syncProfile(ctx context.Context, acct *identity.Account) {
	if err := s.profiles.EnsureProfile(ctx, acct.UID, acct.Email, acct.DisplayName); err != nil {
		s.logger.Error("ensure profile failed", "user_id", acct.UID, "error", err)
		return
	}
	if err := s.profiles.MirrorEmailVerified(ctx, acct.UID, acct.EmailVerified); err != nil {
		s.logger.Warn("mirror email verification failed", "user_id", acct.UID, "error", err)
	}
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	if stored.IsUsed {
		if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
			s.logger.Error("revoke reused session family failed",
				"family_id", stored.FamilyID,
				"error", err,
			)
		}
		return nil, ErrTokenReuse
	}

	if !stored.IsValid() {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	acct := &identity.Account{UID: stored.UserID, Email: stored.Email}

	return s.issue(ctx, acct, stored.ProviderRT, userAgent, ipAddress, stored.FamilyID, stored.ID)
}

// SignOut ends the caller's session. It is idempotent: signing out of an
// already revoked or unknown session succeeds.
func (s *Service) SignOut(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		s.logger.Warn("revoke access token failed", "user_id", claims.UserID, "error", err)
	}

	familyID, err := s.familyFor(ctx, claims, refreshToken)
	if err != nil {
		return err
	}
	if familyID == "" {
		return nil
	}

	if err := s.repo.RevokeByFamilyID(ctx, familyID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *Service) familyFor(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) (string, error) {
	var (
		stored *Session
		err    error
	)
	if refreshToken != "" {
		stored, err = s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	} else {
		stored, err = s.repo.FindByID(ctx, claims.SessionID)
	}
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}

	if stored.UserID != claims.UserID {
		return "", fmt.Errorf("sign out: %w", core.ErrForbidden)
	}
	return stored.FamilyID, nil
}

func (s *Service) SignOutAll(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		s.logger.Warn("revoke access token failed", "user_id", claims.UserID, "error", err)
	}
	if err := s.repo.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	return nil
}

// ResetPassword returns identity.ErrUnknownAccount for unknown emails; the
// HTTP layer does not pass that distinction on.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.provider.SendPasswordReset(ctx, normalizeEmail(email)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// providerSession renews the provider credential stored on the caller's
// session so account-scoped provider calls can be made on their behalf.
func (s *Service) providerSession(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (*Session, *identity.Session, error) {
	stored, err := s.repo.FindByID(ctx, claims.SessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil, identity.ErrNoSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find session: %w", err)
	}
	if stored.UserID != claims.UserID || stored.IsRevoked() || stored.ProviderRT == "" {
		return nil, nil, identity.ErrNoSession
	}

	renewed, err := s.provider.Refresh(ctx, stored.ProviderRT)
	if err != nil {
		return nil, nil, fmt.Errorf("renew provider session: %w", err)
	}

	if renewed.RefreshToken != "" && renewed.RefreshToken != stored.ProviderRT {
		if err := s.repo.UpdateProviderToken(ctx, stored.ID, renewed.RefreshToken); err != nil {
			s.logger.Warn("store renewed provider token failed", "session_id", stored.ID, "error", err)
		}
		stored.ProviderRT = renewed.RefreshToken
	}

	return stored, renewed, nil
}

func (s *Service) ResendVerification(ctx context.Context, claims *middleware.AccessTokenClaims) error {
	if claims == nil {
		return identity.ErrNoSession
	}

	_, renewed, err := s.providerSession(ctx, claims)
	if err != nil {
		return err
	}

	if err := s.provider.SendVerificationEmail(ctx, renewed.IDToken); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	return nil
}

// ChangePassword re-authenticates with the current password before the new
// one is applied, then revokes every session of the user.
func (s *Service) ChangePassword(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	currentPassword, newPassword string,
) error {
	stored, err := s.repo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return identity.ErrNoSession
		}
		return fmt.Errorf("find session: %w", err)
	}

	reauth, err := s.provider.SignIn(ctx, stored.Email, currentPassword)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return ErrWrongCurrentPassword
		}
		return fmt.Errorf("re-authenticate: %w", err)
	}
	if reauth.UID != claims.UserID {
		return ErrWrongCurrentPassword
	}

	if _, err := s.provider.UpdatePassword(ctx, reauth.IDToken, newPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.SignOutAll(ctx, claims)
}

// CurrentAccount reads the provider account for the caller and mirrors its
// verification flag onto the profile.
func (s *Service) CurrentAccount(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (*AccountResponse, error) {
	_, renewed, err := s.providerSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	s.syncProfile(ctx, &renewed.Account)

	return &AccountResponse{
		ID:            renewed.UID,
		Email:         renewed.Email,
		Name:          renewed.DisplayName,
		EmailVerified: renewed.EmailVerified,
	}, nil
}

// EmailVerified reports the provider's current verification state for the
// caller rather than trusting the flag captured when the token was issued.
func (s *Service) EmailVerified(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) (bool, error) {
	acct, err := s.CurrentAccount(ctx, claims)
	if err != nil {
		return false, err
	}
	return acct.EmailVerified, nil
}

// VerifyAccessToken checks the signature and then the revocation list.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		s.logger.Warn("revocation check failed", "error", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	sessions, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	out := make([]SessionInfo, 0, len(sessions))
	for _, t := range sessions {
		out = append(out, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return out, nil
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	stored, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if stored.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) issue(
	ctx context.Context,
	acct *identity.Account,
	providerRT, userAgent, ipAddress, familyID, previousID string,
) (*AuthResponse, error) {
	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	session := &Session{
		ID:         uuid.New().String(),
		UserID:     acct.UID,
		Email:      acct.Email,
		TokenHash:  refreshData.Hash,
		FamilyID:   refreshData.FamilyID,
		ExpiresAt:  refreshData.ExpiresAt,
		CreatedAt:  time.Now().UTC(),
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ProviderRT: providerRT,
	}

	if previousID != "" {
		if err := s.repo.MarkAsUsed(ctx, previousID, session.ID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, ErrTokenReuse
			}
			return nil, fmt.Errorf("rotate session: %w", err)
		}
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:    acct.UID,
		Email:     acct.Email,
		SessionID: session.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: AccountResponse{
			ID:            acct.UID,
			Email:         acct.Email,
			Name:          acct.DisplayName,
			EmailVerified: acct.EmailVerified,
		},
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    access.ExpiresAt,
		},
	}, nil
}
