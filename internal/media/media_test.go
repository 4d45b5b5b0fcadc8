// AngelaMos | 2026
// media_test.go

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

func newTestService(t *testing.T) (*Service, *MemoryBucket) {
	t.Helper()
	bucket := NewMemoryBucket("http://localhost:9199/media-test")
	return NewService(docstore.NewMemory(), bucket, nil), bucket
}

func TestUploadAndDelete(t *testing.T) {
	svc, bucket := newTestService(t)
	ctx := context.Background()

	asset, err := svc.Upload(ctx, "../Tūī photo.png", "", strings.NewReader("png-bytes"), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "T-photo.png", asset.Name)
	assert.True(t, strings.HasPrefix(asset.Path, "media/"+asset.ID+"/"))
	assert.Equal(t, "image/png", asset.ContentType)
	assert.EqualValues(t, len("png-bytes"), asset.Size)
	assert.Equal(t, "http://localhost:9199/media-test/"+asset.Path, asset.URL)

	data, contentType, ok := bucket.Object(asset.Path)
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, svc.Delete(ctx, asset.ID))
	_, _, ok = bucket.Object(asset.Path)
	assert.False(t, ok)

	_, err = svc.Get(ctx, asset.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, asset.ID), core.ErrNotFound)
}

func TestUploadRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	for _, name := range []string{"", "..", "///", "   "} {
		_, err := svc.Upload(context.Background(), name, "text/plain", strings.NewReader("x"), "u")
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "a.txt", "", strings.NewReader("a"), "u")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Upload(ctx, "b.txt", "", strings.NewReader("b"), "u")
	require.NoError(t, err)

	assets, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, second.ID, assets[0].ID)
	assert.Equal(t, first.ID, assets[1].ID)
}

func TestUploadEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	asAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &middleware.AccessTokenClaims{UserID: "admin-1"}
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
	r := chi.NewRouter()
	NewHandler(svc, nil).RegisterAdminRoutes(r, asAdmin)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "koru.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte("<svg/>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Data Asset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "koru.svg", env.Data.Name)
	assert.Equal(t, "admin-1", env.Data.UploadedBy)
	assert.Equal(t, "image/svg+xml", env.Data.ContentType)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/media", strings.NewReader("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/"+env.Data.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/"+env.Data.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
