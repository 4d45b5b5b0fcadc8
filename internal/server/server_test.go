// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/health"
)

type okChecker struct{}

func (okChecker) Ping(context.Context) error { return nil }

func newServer() (*Server, *health.Handler) {
	h := health.NewHandler(okChecker{}, nil)
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: h,
	})
	h.RegisterRoutes(srv.Router())
	return srv, h
}

func TestRouterServesHealth(t *testing.T) {
	srv, _ := newServer()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
}

func TestRecovererReturns500(t *testing.T) {
	srv, _ := newServer()
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func statusOf(srv *Server, path string) int {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestShutdownFailsReadinessBeforeLiveness(t *testing.T) {
	srv, _ := newServer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Shutdown(ctx, 500*time.Millisecond)
	}()

	assert.Eventually(t, func() bool {
		return statusOf(srv, "/readyz") == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, http.StatusOK, statusOf(srv, "/livez"))

	require.NoError(t, <-done)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(srv, "/livez"))
}
