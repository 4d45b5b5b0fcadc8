// AngelaMos | 2026
// service_test.go

package admin

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]AdminUser
	hits    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]AdminUser{}} }

func (c *mapCache) Get(_ context.Context, uid string) (*AdminUser, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[uid]
	if ok {
		c.hits++
	}
	return &a, ok
}

func (c *mapCache) Set(_ context.Context, a *AdminUser) {
	c.mu.Lock()
	c.entries[a.UID] = *a
	c.mu.Unlock()
}

func (c *mapCache) Delete(_ context.Context, uid string) {
	c.mu.Lock()
	delete(c.entries, uid)
	c.mu.Unlock()
}

func allowList(emails string) AllowList {
	set := config.ParseEmailList(emails)
	return func(email string) bool {
		_, ok := set[email]
		return ok
	}
}

func newTestService(t *testing.T, cache Cache) *Service {
	t.Helper()
	return NewService(docstore.NewMemory(), cache, allowList("boss@example.com"), nil)
}

func TestGrantMakesSuperAdmin(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.Grant(ctx, "uid-1", "Boss@Example.com")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, a.Role)
	assert.Equal(t, AllPermissions(), a.Permissions)
	assert.Equal(t, "boss@example.com", a.Email)

	ok, err := svc.CheckAccess(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, perm := range []Permission{
		CanEditContent, CanEditLayout, CanManageUsers,
		CanManageMedia, CanEditActivities, CanViewAnalytics,
	} {
		ok, err := svc.HasPermission(ctx, "uid-1", perm)
		require.NoError(t, err)
		assert.True(t, ok, perm)
	}
}

func TestHasPermission(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, "editor-1", "ed@example.com", RoleEditor, Permissions{CanEditContent: true})
	require.NoError(t, err)
	_, err = svc.Assign(ctx, "super-1", "s@example.com", RoleSuperAdmin, Permissions{})
	require.NoError(t, err)

	tests := []struct {
		uid  string
		perm Permission
		want bool
	}{
		{"editor-1", CanEditContent, true},
		{"editor-1", CanEditLayout, false},
		{"super-1", CanManageUsers, true},
		{"nobody", CanEditContent, false},
		{"", CanEditContent, false},
	}
	for _, tt := range tests {
		got, err := svc.HasPermission(ctx, tt.uid, tt.perm)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.uid, tt.perm)
	}

	_, err = svc.Assign(ctx, "x", "x@example.com", Role("owner"), Permissions{})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetupIsAllowListGated(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Setup(ctx, "uid-2", "stranger@example.com", true)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = svc.Setup(ctx, "uid-1", "boss@example.com", false)
	assert.ErrorIs(t, err, ErrEmailUnverified)

	ok, err := svc.CheckAccess(ctx, "uid-2")
	require.NoError(t, err)
	assert.False(t, ok)

	a, err := svc.Setup(ctx, "uid-1", "boss@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, a.Role)

	again, err := svc.Setup(ctx, "uid-1", "boss@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, a.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestCacheIsInvalidatedOnRevoke(t *testing.T) {
	cache := newMapCache()
	svc := newTestService(t, cache)
	ctx := context.Background()

	_, err := svc.Grant(ctx, "uid-1", "boss@example.com")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	require.NoError(t, svc.Revoke(ctx, "uid-1"))
	_, err = svc.Get(ctx, "uid-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	ok, err := svc.HasPermission(ctx, "uid-1", CanEditContent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouchLastLogin(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.TouchLastLogin(ctx, "not-an-admin"))
	ok, err := svc.CheckAccess(ctx, "not-an-admin")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Grant(ctx, "uid-1", "boss@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.TouchLastLogin(ctx, "uid-1"))

	a, err := svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, a.LastLogin)

	admins, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
