// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReadinessSkipsUnconfiguredRedis(t *testing.T) {
	code, resp := readiness(t, NewHandler(pinger{}, nil))

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "store", resp.Checks[0].Name)
	assert.True(t, resp.Checks[0].Healthy)
}

func TestReadinessDegradedWhenRedisDown(t *testing.T) {
	code, resp := readiness(t, NewHandler(pinger{}, pinger{err: errors.New("refused")}))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.False(t, resp.Checks[1].Healthy)
	assert.Equal(t, "ping failed", resp.Checks[1].Message)
}

func TestReadinessWithoutStore(t *testing.T) {
	code, resp := readiness(t, NewHandler(nil, nil))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "store checker not configured", resp.Checks[0].Message)
}

func TestNotReadyAndShutdown(t *testing.T) {
	h := NewHandler(pinger{}, nil)
	h.SetReady(false)

	code, resp := readiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Status)

	h.SetShutdown(true)
	code, resp = readiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", resp.Status)
}
