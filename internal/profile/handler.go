// AngelaMos | 2026
// handler.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

type Handler struct {
	service        *Service
	validator      *validator.Validate
	resolveTimeout time.Duration
}

func NewHandler(service *Service, resolveTimeout time.Duration) *Handler {
	if resolveTimeout <= 0 {
		resolveTimeout = 10 * time.Second
	}
	return &Handler{
		service:        service,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
		resolveTimeout: resolveTimeout,
	}
}

// RegisterRoutes mounts /users/me. extra lets other packages add their own
// routes for the caller under the same prefix.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	extra ...func(chi.Router),
) {
	r.Route("/users/me", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetMe)
		r.Patch("/", h.UpdateMe)
		r.Put("/character", h.SelectCharacter)
		r.Put("/difficulty", h.SelectDifficulty)
		r.Get("/journey", h.GetJourney)
		r.Get("/achievements", h.GetAchievements)
		r.Get("/stream", h.Stream)

		for _, register := range extra {
			register(r)
		}
	})
}

// RegisterAdminRoutes registers profile management for admins holding the
// user management permission.
func (h *Handler) RegisterAdminRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Use(guard)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Patch("/{userID}", h.UpdateUser)
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, ErrCharacterLocked):
		core.JSONError(w, core.NewAppError(err, "character has already been chosen", http.StatusConflict, "CHARACTER_LOCKED"))
	case errors.Is(err, ErrUnknownCharacter):
		core.NotFound(w, "character")
	case errors.Is(err, progress.ErrInvalidDifficulty):
		core.BadRequest(w, err.Error())
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

func (h *Handler) me(w http.ResponseWriter, r *http.Request) (*User, bool) {
	ctx := r.Context()
	user, err := h.service.Load(ctx, middleware.GetUserID(ctx), middleware.GetUserEmail(ctx), "")
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return user, true
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w, r)
	if !ok {
		return
	}
	core.OK(w, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), Changes{Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) SelectCharacter(w http.ResponseWriter, r *http.Request) {
	var req SelectCharacterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SelectCharacter(r.Context(), middleware.GetUserID(r.Context()), req.CharacterID)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) SelectDifficulty(w http.ResponseWriter, r *http.Request) {
	var req SelectDifficultyRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SelectDifficulty(r.Context(), middleware.GetUserID(r.Context()), req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) GetJourney(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w, r)
	if !ok {
		return
	}
	core.OK(w, ToJourney(user))
}

func (h *Handler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w, r)
	if !ok {
		return
	}
	core.OK(w, ToAchievementStatuses(user))
}

// ListUsers returns a page of profiles, newest first.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}
	params.Normalize()

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, users, params.Page, params.PageSize, total)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, user)
}

// UpdateUser corrects a learner's profile. Day and points still only move
// forward.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "userID"), Changes{
		Name:          req.Name,
		CurrentDay:    req.CurrentDay,
		TotalPoints:   req.TotalPoints,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
