// AngelaMos | 2026
// character_test.go

package character

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

func TestSeedAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory())

	n, err := svc.Seed(ctx, []Character{
		{ID: "tane", Name: "Tāne"},
		{ID: "hine", Name: "Hine"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Seed(ctx, []Character{{ID: "tane", Name: "Changed"}}, false)
	require.NoError(t, err)
	assert.Zero(t, n)

	chars, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, "Hine", chars[0].Name)
	assert.Equal(t, "Tāne", chars[1].Name)

	ok, err := svc.Exists(ctx, "tane")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, "maui")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandlerGet(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	_, err := svc.Seed(context.Background(), []Character{{ID: "tane", Name: "Tāne"}}, true)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/tane", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Tāne"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/maui", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
