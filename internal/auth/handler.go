// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/identity"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Post("/refresh", h.Refresh)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/signout", h.SignOut)
			r.Post("/signout-all", h.SignOutAll)
			r.Post("/resend-verification", h.ResendVerification)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
		})
	})
}

var identityErrors = []struct {
	err    error
	status int
	code   string
	msg    string
}{
	{identity.ErrAccountExists, http.StatusConflict, "ACCOUNT_EXISTS", "an account with this email already exists"},
	{identity.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD", "password is too weak"},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"},
	{identity.ErrAccountDisabled, http.StatusForbidden, "ACCOUNT_DISABLED", "this account has been disabled"},
	{identity.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL", "email address is invalid"},
	{identity.ErrNoSession, http.StatusUnauthorized, "NO_SESSION", "an active session is required"},
	{ErrWrongCurrentPassword, http.StatusUnauthorized, "WRONG_CURRENT_PASSWORD", "current password is incorrect"},
}

func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range identityErrors {
		if errors.Is(err, m.err) {
			core.JSONError(w, core.NewAppError(err, m.msg, m.status, m.code))
			return
		}
	}

	switch {
	case errors.Is(err, ErrTokenReuse):
		core.JSONError(w, core.NewAppError(
			core.ErrTokenRevoked,
			"security alert: token reuse detected, all sessions revoked",
			http.StatusUnauthorized,
			"TOKEN_REUSE_DETECTED",
		))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "session")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "cannot act on another user's session")
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

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SignUp(r.Context(), req, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SignIn(r.Context(), req, r.UserAgent(), extractIPAddress(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		extractIPAddress(r),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, resp)
}

// ResetPassword always answers 202 so callers cannot discover which emails have accounts.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email); err != nil {
		level := slog.LevelError
		if errors.Is(err, identity.ErrUnknownAccount) || errors.Is(err, identity.ErrInvalidEmail) {
			level = slog.LevelInfo
		}
		slog.Log(r.Context(), level, "password reset not sent", "error", err)
	}

	core.Accepted(w, map[string]string{
		"message": "if an account exists for this email, a reset link has been sent",
	})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SignOut(r.Context(), claims, req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) SignOutAll(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.SignOutAll(r.Context(), claims); err != nil {
		writeServiceError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeServiceError(w, identity.ErrNoSession)
		return
	}

	if err := h.service.ResendVerification(r.Context(), claims); err != nil {
		writeServiceError(w, err)
		return
	}

	core.Accepted(w, map[string]string{"message": "verification email sent"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), claims, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	account, err := h.service.CurrentAccount(r.Context(), claims)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	core.OK(w, account)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessions, err := h.service.GetActiveSessions(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	core.NoContent(w)
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
