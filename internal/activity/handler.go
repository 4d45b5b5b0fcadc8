// AngelaMos | 2026
// handler.go

package activity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
	"github.com/carterperez-dev/mahuru-activation/internal/stream"
)

type ProfileLoader interface {
	Load(ctx context.Context, userID, email, name string) (*profile.User, error)
}

type Handler struct {
	service   *Service
	profiles  ProfileLoader
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, profiles ProfileLoader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		profiles:  profiles,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/activities", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{day}", h.Get)
		r.Post("/{day}/complete", h.Complete)
	})
}

// RegisterMeRoutes adds the caller's completion log under /users/me.
func (h *Handler) RegisterMeRoutes(r chi.Router) {
	r.Get("/progress", h.ListMyProgress)
}

// RegisterAdminRoutes registers curriculum editing for admins holding the
// activity permission.
func (h *Handler) RegisterAdminRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/activities", func(r chi.Router) {
		r.Use(guard)

		r.Get("/", h.AdminList)
		r.Get("/stream", h.AdminStream)
		r.Patch("/{day}", h.Update)
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDay):
		core.BadRequest(w, err.Error())
	case errors.Is(err, ErrDayLocked):
		core.JSONError(w, core.NewAppError(err, "this day is not unlocked yet", http.StatusForbidden, "DAY_LOCKED"))
	case errors.Is(err, ErrDifficultyNotChosen):
		core.JSONError(w, core.NewAppError(err, "choose a difficulty first", http.StatusConflict, "DIFFICULTY_REQUIRED"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "activity")
	default:
		core.InternalServerError(w, err)
	}
}

func parseDay(w http.ResponseWriter, r *http.Request) (int, bool) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		core.BadRequest(w, "day must be a number")
		return 0, false
	}
	if err := checkDay(day); err != nil {
		writeError(w, err)
		return 0, false
	}
	return day, true
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) (*profile.User, bool) {
	ctx := r.Context()
	user, err := h.profiles.Load(ctx, middleware.GetUserID(ctx), middleware.GetUserEmail(ctx), "")
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return nil, false
		}
		core.InternalServerError(w, err)
		return nil, false
	}
	return user, true
}

type DaySummary struct {
	Day       int                   `json:"day"`
	Theme     string                `json:"theme,omitempty"`
	Title     string                `json:"title,omitempty"`
	Type      progress.ActivityType `json:"type"`
	Points    int                   `json:"points"`
	Unlocked  bool                  `json:"unlocked"`
	Completed bool                  `json:"completed"`
}

// List summarizes all thirty days for the caller. Titles of locked days
// are withheld.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w, r)
	if !ok {
		return
	}

	curated, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	byDay := make(map[int]*Activity, len(curated))
	for i := range curated {
		byDay[curated[i].Day] = &curated[i]
	}

	difficulty := user.Difficulty()
	journey := progress.Journey(user.State())
	out := make([]DaySummary, 0, len(journey))
	for _, d := range journey {
		view := ToView(byDay[d.Day], d.Day, difficulty, d.Completed)
		summary := DaySummary{
			Day:       d.Day,
			Type:      view.Type,
			Points:    view.Points,
			Unlocked:  d.Unlocked,
			Completed: d.Completed,
		}
		if d.Unlocked {
			summary.Theme = view.Theme
			summary.Title = view.Title
		}
		out = append(out, summary)
	}

	core.OK(w, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}
	user, ok := h.me(w, r)
	if !ok {
		return
	}

	view, err := h.service.ForUser(r.Context(), user, day)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, view)
}

// Complete records a finished day. Store failures are logged and the
// learner still sees the day as completed, with recorded set to false.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if _, ok := h.me(w, r); !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	result, err := h.service.Complete(r.Context(), userID, day, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDayLocked),
			errors.Is(err, ErrInvalidDay),
			errors.Is(err, ErrDifficultyNotChosen):
			writeError(w, err)
			return
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
			return
		}

		h.logger.Error("activity completion not recorded",
			"user_id", userID,
			"day", day,
			"error", err,
		)
		core.OK(w, CompletionResult{
			Completed:     true,
			Recorded:      false,
			ActivityID:    DocID(day),
			Day:           day,
			NewlyUnlocked: []string{},
		})
		return
	}

	core.OK(w, result)
}

func (h *Handler) ListMyProgress(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListProgress(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ProgressResponse{Progress: records})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, activities)
}

func (h *Handler) AdminStream(w http.ResponseWriter, r *http.Request) {
	queue := stream.NewQueue(4)
	unsubscribe, err := h.service.Watch(r.Context(), func(list []Activity) {
		queue.Send(stream.Event{Name: stream.EventSnapshot, Data: list})
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer unsubscribe()

	if err := stream.Serve(w, r, queue.Events()); err != nil {
		h.logger.Warn("activity stream ended", "error", err)
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDay(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	editor := middleware.GetUserEmail(r.Context())
	if editor == "" {
		editor = middleware.GetUserID(r.Context())
	}

	updated, err := h.service.Update(r.Context(), day, req, editor)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, updated)
}
