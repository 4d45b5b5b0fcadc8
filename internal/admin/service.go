// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

var (
	ErrNotAllowed      = errors.New("email is not on the admin allow-list")
	ErrEmailUnverified = errors.New("email is not verified")
)

// AllowList reports whether an email may complete admin setup.
type AllowList func(email string) bool

type Service struct {
	admins  *docstore.Collection[AdminUser]
	cache   Cache
	allowed AllowList
	logger  *slog.Logger
}

func NewService(store docstore.Store, cache Cache, allowed AllowList, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoCache()
	}
	if allowed == nil {
		allowed = func(string) bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		admins:  docstore.NewCollection[AdminUser](store, Collection),
		cache:   cache,
		allowed: allowed,
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, uid string) (*AdminUser, error) {
	if a, ok := s.cache.Get(ctx, uid); ok {
		return a, nil
	}

	a, err := s.admins.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	s.cache.Set(ctx, a)
	return a, nil
}

// CheckAccess reports whether an admin record exists for uid.
func (s *Service) CheckAccess(ctx context.Context, uid string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	_, err := s.Get(ctx, uid)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) HasPermission(ctx context.Context, uid string, perm Permission) (bool, error) {
	if uid == "" {
		return false, nil
	}
	a, err := s.Get(ctx, uid)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Can(perm), nil
}

// Assign writes the admin record for uid, replacing any existing role and
// permissions. The original creation time is kept.
func (s *Service) Assign(
	ctx context.Context,
	uid, email string,
	role Role,
	perms Permissions,
) (*AdminUser, error) {
	ctx, span := core.StartSpan(ctx, "admin.assign",
		attribute.String("admin.uid", uid),
		attribute.String("admin.role", string(role)),
	)
	defer span.End()

	if strings.TrimSpace(uid) == "" {
		return nil, fmt.Errorf("assign admin: %w: uid is required", core.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("assign admin: %w: %q", ErrInvalidRole, role)
	}

	a := &AdminUser{
		UID:         uid,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Role:        role,
		Permissions: perms,
		CreatedAt:   time.Now().UTC(),
	}
	if existing, err := s.admins.Get(ctx, uid); err == nil {
		a.CreatedAt = existing.CreatedAt
		a.LastLogin = existing.LastLogin
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("assign admin: %w", err)
	}

	if err := s.admins.Set(ctx, uid, a); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("assign admin: %w", err)
	}
	s.cache.Delete(ctx, uid)

	core.AddSpanEvent(ctx, "admin_assigned")
	s.logger.Info("admin assigned", "uid", uid, "email", a.Email, "role", role)
	return a, nil
}

// Grant makes uid a super admin holding every permission.
func (s *Service) Grant(ctx context.Context, uid, email string) (*AdminUser, error) {
	return s.Assign(ctx, uid, email, RoleSuperAdmin, AllPermissions())
}

// Setup lets an allow-listed user with a verified email grant themselves
// admin access. Repeating setup returns the existing record unchanged.
func (s *Service) Setup(ctx context.Context, uid, email string, verified bool) (*AdminUser, error) {
	if !s.allowed(email) {
		return nil, fmt.Errorf("admin setup: %w", ErrNotAllowed)
	}
	if !verified {
		return nil, fmt.Errorf("admin setup: %w", ErrEmailUnverified)
	}

	existing, err := s.admins.Get(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("admin setup: %w", err)
	}
	return s.Grant(ctx, uid, email)
}

func (s *Service) Revoke(ctx context.Context, uid string) error {
	if err := s.admins.Delete(ctx, uid); err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}
	s.cache.Delete(ctx, uid)

	core.AddSpanEvent(ctx, "admin_revoked", attribute.String("admin.uid", uid))
	s.logger.Info("admin revoked", "uid", uid)
	return nil
}

func (s *Service) List(ctx context.Context) ([]AdminUser, error) {
	admins, err := s.admins.List(ctx, docstore.Query{}.Order("email", false))
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// TouchLastLogin stamps lastLogin on an existing record. Non-admins are
// ignored.
func (s *Service) TouchLastLogin(ctx context.Context, uid string) error {
	if _, err := s.admins.Get(ctx, uid); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("touch admin login: %w", err)
	}

	if err := s.admins.Merge(ctx, uid, map[string]any{"lastLogin": time.Now().UTC()}); err != nil {
		return fmt.Errorf("touch admin login: %w", err)
	}
	s.cache.Delete(ctx, uid)
	return nil
}
