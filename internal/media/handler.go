// AngelaMos | 2026
// handler.go

package media

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/stream"
)

const MaxUploadBytes = 10 << 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterAdminRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/media", func(r chi.Router) {
		r.Use(guard)

		r.Get("/", h.List)
		r.Get("/stream", h.Stream)
		r.Post("/", h.Upload)
		r.Delete("/{assetID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, assets)
}

// Upload accepts a multipart form with the object in the "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSONError(w, core.NewAppError(err, "file is too large", http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"))
			return
		}
		core.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	name := header.Filename
	if override := r.FormValue("name"); override != "" {
		name = override
	}

	asset, err := h.service.Upload(
		r.Context(),
		name,
		header.Header.Get("Content-Type"),
		file,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			core.BadRequest(w, err.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, asset)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "assetID")); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "media asset")
			return
		}
		core.InternalServerError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	queue := stream.NewQueue(4)
	unsubscribe, err := h.service.Watch(r.Context(), func(assets []Asset) {
		queue.Send(stream.Event{Name: stream.EventSnapshot, Data: assets})
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer unsubscribe()

	if err := stream.Serve(w, r, queue.Events()); err != nil {
		h.logger.Warn("media stream ended", "error", err)
	}
}
