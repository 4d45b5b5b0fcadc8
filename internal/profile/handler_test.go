// AngelaMos | 2026
// handler_test.go

package profile

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

func asUser(uid string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &middleware.AccessTokenClaims{UserID: uid, Email: uid + "@example.com"}
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

func newRouter(h *Handler, uid string) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r, asUser(uid))
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func TestGetMeCreatesProfileLazily(t *testing.T) {
	svc, _ := newTestService(t)
	r := newRouter(NewHandler(svc, time.Second), "uid-9")

	code, env := do(t, r, http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, code)

	var user User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "uid-9", user.ID)
	assert.Equal(t, "uid-9@example.com", user.Email)
	assert.Equal(t, 1, user.CurrentDay)
}

func TestSelectionEndpoints(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Create(context.Background(), "uid-1", "a@b.com", "Ana"))
	r := newRouter(NewHandler(svc, time.Second), "uid-1")

	code, _ := do(t, r, http.MethodPut, "/users/me/difficulty", `{"difficulty":"expert"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPut, "/users/me/difficulty", `{"difficulty":"advanced"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, http.MethodPut, "/users/me/character", `{"character_id":"tane"}`)
	assert.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodPut, "/users/me/character", `{"character_id":"hine"}`)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CHARACTER_LOCKED", env.Error.Code)

	code, env = do(t, r, http.MethodGet, "/users/me/journey", "")
	require.Equal(t, http.StatusOK, code)
	var journey JourneyResponse
	require.NoError(t, json.Unmarshal(env.Data, &journey))
	require.Len(t, journey.Days, 30)
	assert.True(t, journey.Days[1].Unlocked)
	assert.False(t, journey.Days[2].Unlocked)
}

func TestUpdateMeOnlyTouchesName(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Create(context.Background(), "uid-1", "a@b.com", "Ana"))
	r := newRouter(NewHandler(svc, time.Second), "uid-1")

	code, env := do(t, r, http.MethodPatch, "/users/me", `{"name":"Aroha","current_day":30,"total_points":999}`)
	require.Equal(t, http.StatusOK, code)

	var user User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Aroha", user.Name)
	assert.Equal(t, 1, user.CurrentDay)
	assert.Zero(t, user.TotalPoints)
}

func TestAchievementsView(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, "uid-1", "a@b.com", "Ana"))
	_, err := svc.Update(ctx, "uid-1", Changes{CurrentDay: intPtr(8), TotalPoints: intPtr(60)})
	require.NoError(t, err)
	r := newRouter(NewHandler(svc, time.Second), "uid-1")

	code, env := do(t, r, http.MethodGet, "/users/me/achievements", "")
	require.Equal(t, http.StatusOK, code)

	var statuses []AchievementStatus
	require.NoError(t, json.Unmarshal(env.Data, &statuses))
	unlocked := map[string]bool{}
	for _, s := range statuses {
		unlocked[s.ID] = s.Unlocked
	}
	assert.True(t, unlocked["first-step"])
	assert.True(t, unlocked["week-one"])
	assert.True(t, unlocked["points-50"])
	assert.False(t, unlocked["points-150"])
}

type eventReader struct {
	scanner *bufio.Scanner
}

func (e *eventReader) next(t *testing.T) (string, string) {
	t.Helper()
	var name, data string
	for e.scanner.Scan() {
		line := e.scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatalf("stream ended: %v", e.scanner.Err())
	return "", ""
}

func openStream(t *testing.T, h http.Handler) *eventReader {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/users/me/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return &eventReader{scanner: bufio.NewScanner(resp.Body)}
}

func TestStreamPushesChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, "uid-1", "a@b.com", "Ana"))

	events := openStream(t, newRouter(NewHandler(svc, time.Second), "uid-1"))

	name, data := events.next(t)
	assert.Equal(t, "snapshot", name)
	assert.Contains(t, data, `"current_day":1`)

	name, data = events.next(t)
	assert.Equal(t, "ready", name)
	assert.Contains(t, data, `"timed_out":false`)

	_, err := svc.Update(ctx, "uid-1", Changes{CurrentDay: intPtr(2)})
	require.NoError(t, err)

	name, data = events.next(t)
	assert.Equal(t, "snapshot", name)
	assert.Contains(t, data, `"current_day":2`)
}

type silentRepo struct {
	Repository
}

func (silentRepo) Watch(context.Context, string, func(*User)) (docstore.Unsubscribe, error) {
	return func() {}, nil
}

func TestStreamResolveTimeout(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(silentRepo{NewRepository(store)}, characterSet{}, nil)

	events := openStream(t, newRouter(NewHandler(svc, 20*time.Millisecond), "uid-1"))

	name, data := events.next(t)
	assert.Equal(t, "ready", name)
	assert.JSONEq(t, `{"profile":null,"timed_out":true}`, data)
}
