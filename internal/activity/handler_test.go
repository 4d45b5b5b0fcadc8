// AngelaMos | 2026
// handler_test.go

package activity

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

	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

func asUser(uid string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &middleware.AccessTokenClaims{UserID: uid, Email: uid + "@example.com"}
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

func router(f *fixture, svc *Service, uid string) chi.Router {
	h := NewHandler(svc, f.profiles, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(uid))
	profile.NewHandler(f.profiles, 0).RegisterRoutes(r, asUser(uid), h.RegisterMeRoutes)
	r.Route("/admin", func(r chi.Router) {
		h.RegisterAdminRoutes(r, asUser(uid))
	})
	return r
}

func send(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestCompleteCreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	r := router(f, f.service, "uid-new")

	code, env := send(t, r, http.MethodPost, "/activities/1/complete", ``)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DIFFICULTY_REQUIRED", env["error"].(map[string]any)["code"])

	user, err := f.profiles.Get(context.Background(), "uid-new")
	require.NoError(t, err)
	assert.Equal(t, "uid-new@example.com", user.Email)
	assert.Equal(t, 1, user.CurrentDay)

	_, err = f.profiles.SelectDifficulty(context.Background(), "uid-new", string(progress.Beginner))
	require.NoError(t, err)
	code, env = send(t, r, http.MethodPost, "/activities/1/complete", ``)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env["data"].(map[string]any)["recorded"])
}

func TestCompleteEndpoint(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "uid-1", 5, progress.Beginner)
	_, err := f.service.Seed(context.Background(), []Activity{quizDay(5, 10)}, false)
	require.NoError(t, err)
	r := router(f, f.service, "uid-1")

	code, env := send(t, r, http.MethodPost, "/activities/5/complete", `{"answer":"wai","time_taken":30}`)
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, true, data["recorded"])
	assert.EqualValues(t, 6, data["current_day"])
	assert.EqualValues(t, 10, data["points_earned"])

	code, env = send(t, r, http.MethodPost, "/activities/7/complete", ``)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "DAY_LOCKED", env["error"].(map[string]any)["code"])

	code, _ = send(t, r, http.MethodPost, "/activities/abc/complete", ``)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = send(t, r, http.MethodGet, "/users/me/progress", ``)
	require.Equal(t, http.StatusOK, code)
	records := env["data"].(map[string]any)["progress"].([]any)
	assert.Len(t, records, 1)
}

type brokenTxStore struct {
	docstore.Store
}

func (brokenTxStore) RunTransaction(context.Context, func(context.Context, docstore.Tx) error) error {
	return errors.New("deadline exceeded")
}

func TestCompleteFailsOpen(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "uid-1", 2, progress.Beginner)
	r := router(f, NewService(brokenTxStore{f.store}, nil), "uid-1")

	code, env := send(t, r, http.MethodPost, "/activities/2/complete", `{}`)
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, true, data["completed"])
	assert.Equal(t, false, data["recorded"])

	user, err := f.profiles.Get(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.CurrentDay)
}

func TestListSummariesWithholdLockedTitles(t *testing.T) {
	f := newFixture(t)
	f.learner(t, "uid-1", 1, progress.Beginner)
	_, err := f.service.Seed(context.Background(), []Activity{quizDay(1, 10), quizDay(2, 10)}, false)
	require.NoError(t, err)
	r := router(f, f.service, "uid-1")

	code, env := send(t, r, http.MethodGet, "/activities", ``)
	require.Equal(t, http.StatusOK, code)
	days := env["data"].([]any)
	require.Len(t, days, 30)

	day1 := days[0].(map[string]any)
	day2 := days[1].(map[string]any)
	assert.Equal(t, "Kupu hou", day1["title"])
	assert.Equal(t, true, day1["unlocked"])
	assert.Nil(t, day2["title"])
	assert.Equal(t, false, day2["unlocked"])
}

func TestAdminPatchActivity(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Seed(context.Background(), []Activity{quizDay(3, 10)}, false)
	require.NoError(t, err)
	r := router(f, f.service, "editor")

	code, env := send(t, r, http.MethodPatch, "/admin/activities/3", `{"theme":"Te Taiao","beginner":{"type":"practice"}}`)
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "Te Taiao", data["theme"])
	assert.Equal(t, "editor@example.com", data["updatedBy"])
	assert.Equal(t, "practice", data["beginner"].(map[string]any)["type"])

	code, _ = send(t, r, http.MethodPatch, "/admin/activities/3", `{"beginner":{"type":"dance"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
