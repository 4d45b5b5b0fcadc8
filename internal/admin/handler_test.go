// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

func asUser(uid, email string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &middleware.AccessTokenClaims{UserID: uid, Email: email}
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

func newRouter(h *Handler, uid, email string) chi.Router {
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(asUser(uid, email))
		h.RegisterRoutes(r)
	})
	return r
}

func send(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var env map[string]any
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func verifiedAs(verified bool) func(context.Context, *middleware.AccessTokenClaims) (bool, error) {
	return func(context.Context, *middleware.AccessTokenClaims) (bool, error) {
		return verified, nil
	}
}

func TestSetupAndAccessEndpoints(t *testing.T) {
	svc := newTestService(t, nil)
	h := NewHandler(HandlerConfig{Service: svc, EmailVerified: verifiedAs(true)})

	stranger := newRouter(h, "uid-2", "stranger@example.com")
	code, env := send(t, stranger, http.MethodGet, "/admin/access", ``)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, env["data"].(map[string]any)["is_admin"])

	code, env = send(t, stranger, http.MethodPost, "/admin/setup", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_ALLOWED", env["error"].(map[string]any)["code"])

	boss := newRouter(h, "uid-1", "boss@example.com")
	code, _ = send(t, boss, http.MethodPost, "/admin/setup", ``)
	require.Equal(t, http.StatusOK, code)

	code, env = send(t, boss, http.MethodGet, "/admin/access", ``)
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, true, data["is_admin"])
	assert.Equal(t, "super_admin", data["admin"].(map[string]any)["role"])
}

func TestSetupRequiresVerifiedEmail(t *testing.T) {
	svc := newTestService(t, nil)

	unverified := newRouter(NewHandler(HandlerConfig{Service: svc, EmailVerified: verifiedAs(false)}),
		"uid-1", "boss@example.com")
	code, env := send(t, unverified, http.MethodPost, "/admin/setup", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", env["error"].(map[string]any)["code"])

	code, env = send(t, unverified, http.MethodGet, "/admin/access", ``)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, env["data"].(map[string]any)["is_admin"])

	unchecked := newRouter(NewHandler(HandlerConfig{Service: svc}), "uid-1", "boss@example.com")
	code, env = send(t, unchecked, http.MethodPost, "/admin/setup", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", env["error"].(map[string]any)["code"])

	failingCfg := HandlerConfig{
		Service: svc,
		EmailVerified: func(context.Context, *middleware.AccessTokenClaims) (bool, error) {
			return false, errors.New("provider unreachable")
		},
	}
	failing := newRouter(NewHandler(failingCfg), "uid-1", "boss@example.com")
	code, _ = send(t, failing, http.MethodPost, "/admin/setup", ``)
	assert.Equal(t, http.StatusInternalServerError, code)

	stranger := newRouter(NewHandler(failingCfg), "uid-2", "stranger@example.com")
	code, env = send(t, stranger, http.MethodPost, "/admin/setup", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_ALLOWED", env["error"].(map[string]any)["code"])

	ok, err := svc.CheckAccess(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionGuard(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Assign(ctx, "editor-1", "ed@example.com", RoleEditor, Permissions{CanEditContent: true})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, "boss-1", "boss@example.com")
	require.NoError(t, err)

	h := NewHandler(HandlerConfig{
		Service:         svc,
		StoreDriver:     "memory",
		StorePing:       func(context.Context) error { return nil },
		UserCount:       func(context.Context) (int, error) { return 12, nil },
		CompletionCount: func(context.Context) (int, error) { return 0, errors.New("boom") },
	})

	editor := newRouter(h, "editor-1", "ed@example.com")
	code, env := send(t, editor, http.MethodGet, "/admin/stats", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env["error"].(map[string]any)["code"])

	code, _ = send(t, editor, http.MethodPost, "/admin/admins", `{"uid":"x","email":"x@example.com"}`)
	assert.Equal(t, http.StatusForbidden, code)

	boss := newRouter(h, "boss-1", "boss@example.com")
	code, env = send(t, boss, http.MethodGet, "/admin/stats", ``)
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "memory", data["store"].(map[string]any)["driver"])
	assert.Equal(t, false, data["redis"].(map[string]any)["enabled"])
	learners := data["learners"].(map[string]any)
	assert.EqualValues(t, 12, learners["users"])
	assert.NotContains(t, learners, "completions")
}

func TestGrantAndRevokeEndpoints(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Grant(context.Background(), "boss-1", "boss@example.com")
	require.NoError(t, err)
	boss := newRouter(NewHandler(HandlerConfig{Service: svc}), "boss-1", "boss@example.com")

	code, env := send(t, boss, http.MethodPost, "/admin/admins",
		`{"uid":"ed-1","email":"ed@example.com","role":"editor","permissions":{"canEditLayout":true}}`)
	require.Equal(t, http.StatusCreated, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "editor", data["role"])
	assert.Equal(t, true, data["permissions"].(map[string]any)["canEditLayout"])

	code, _ = send(t, boss, http.MethodPost, "/admin/admins", `{"uid":"ed-2","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = send(t, boss, http.MethodGet, "/admin/admins", ``)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env["data"].([]any), 2)

	code, _ = send(t, boss, http.MethodDelete, "/admin/admins/boss-1", ``)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, boss, http.MethodDelete, "/admin/admins/ed-1", ``)
	assert.Equal(t, http.StatusNoContent, code)

	ok, err := svc.CheckAccess(context.Background(), "ed-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
