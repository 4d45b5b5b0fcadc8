// AngelaMos | 2026
// handler.go

package cms

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/stream"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterRoutes registers the public read side.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Get("/", h.ListContent)
		r.Get("/stream", h.StreamContent)
		r.Get("/{key}", h.GetContent)
	})
	r.Route("/layout", func(r chi.Router) {
		r.Get("/", h.ListLayouts)
		r.Get("/stream", h.StreamLayouts)
		r.Get("/{component}", h.GetLayout)
	})
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.ListSettings)
		r.Get("/stream", h.StreamSettings)
		r.Get("/{key}", h.GetSetting)
	})
}

// RegisterAdminRoutes registers edits. Content and global settings share the
// content guard; layout has its own.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	contentGuard func(http.Handler) http.Handler,
	layoutGuard func(http.Handler) http.Handler,
) {
	r.Route("/content", func(r chi.Router) {
		r.Use(contentGuard)
		r.Put("/{key}", h.SetContent)
		r.Delete("/{key}", h.DeleteContent)
	})
	r.Route("/settings", func(r chi.Router) {
		r.Use(contentGuard)
		r.Put("/{key}", h.SetSetting)
	})
	r.Route("/layout", func(r chi.Router) {
		r.Use(layoutGuard)
		r.Patch("/{component}", h.UpdateLayout)
	})
}

func writeError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrInvalidStyle):
		core.BadRequest(w, err.Error())
	case errors.Is(err, ErrTypeMismatch):
		core.JSONError(w, core.NewAppError(err, err.Error(), http.StatusBadRequest, "TYPE_MISMATCH"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func editor(ctx context.Context) string {
	if email := middleware.GetUserEmail(ctx); email != "" {
		return email
	}
	return middleware.GetUserID(ctx)
}

func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListContent(r.Context(), r.URL.Query().Get("section"))
	if err != nil {
		writeError(w, err, "content")
		return
	}
	core.OK(w, entries)
}

func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetContent(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err, "content")
		return
	}
	core.OK(w, c)
}

func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var in ContentInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := h.service.SetContent(r.Context(), chi.URLParam(r, "key"), in, editor(r.Context()))
	if err != nil {
		writeError(w, err, "content")
		return
	}
	core.OK(w, c)
}

func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteContent(r.Context(), chi.URLParam(r, "key"), editor(r.Context())); err != nil {
		writeError(w, err, "content")
		return
	}
	core.NoContent(w)
}

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ListSettings(r.Context())
	if err != nil {
		writeError(w, err, "setting")
		return
	}
	core.OK(w, settings)
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetSetting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err, "setting")
		return
	}
	core.OK(w, st)
}

func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var in SettingInput
	if !h.decode(w, r, &in) {
		return
	}

	st, err := h.service.SetSetting(r.Context(), chi.URLParam(r, "key"), in.Value, editor(r.Context()))
	if err != nil {
		writeError(w, err, "setting")
		return
	}
	core.OK(w, st)
}

func (h *Handler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := h.service.ListLayouts(r.Context())
	if err != nil {
		writeError(w, err, "layout")
		return
	}
	core.OK(w, layouts)
}

func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetLayout(r.Context(), chi.URLParam(r, "component"))
	if err != nil {
		writeError(w, err, "layout")
		return
	}
	core.OK(w, l)
}

func (h *Handler) UpdateLayout(w http.ResponseWriter, r *http.Request) {
	var patch LayoutPatch
	if !h.decode(w, r, &patch) {
		return
	}

	l, err := h.service.UpdateLayout(r.Context(), chi.URLParam(r, "component"), patch, editor(r.Context()))
	if err != nil {
		writeError(w, err, "layout")
		return
	}
	core.OK(w, l)
}

func (h *Handler) StreamContent(w http.ResponseWriter, r *http.Request) {
	serveCollection(w, r, h.logger, "content", h.service.WatchContent)
}

func (h *Handler) StreamLayouts(w http.ResponseWriter, r *http.Request) {
	serveCollection(w, r, h.logger, "layout", h.service.WatchLayouts)
}

func (h *Handler) StreamSettings(w http.ResponseWriter, r *http.Request) {
	serveCollection(w, r, h.logger, "settings", h.service.WatchSettings)
}

func serveCollection[T any](
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	name string,
	watch func(context.Context, func([]T)) (docstore.Unsubscribe, error),
) {
	queue := stream.NewQueue(4)
	unsubscribe, err := watch(r.Context(), func(items []T) {
		queue.Send(stream.Event{Name: stream.EventSnapshot, Data: items})
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer unsubscribe()

	if err := stream.Serve(w, r, queue.Events()); err != nil {
		logger.Warn("cms stream ended", "stream", name, "error", err)
	}
}
