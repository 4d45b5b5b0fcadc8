// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
)

type Handler struct {
	service         *Service
	validator       *validator.Validate
	storeDriver     string
	storePing       func(ctx context.Context) error
	dbStats         func() sql.DBStats
	redisStats      func() *redis.PoolStats
	redisPing       func(ctx context.Context) error
	userCount       func(ctx context.Context) (int, error)
	completionCount func(ctx context.Context) (int, error)
	emailVerified   func(ctx context.Context, claims *middleware.AccessTokenClaims) (bool, error)
}

type HandlerConfig struct {
	Service         *Service
	StoreDriver     string
	StorePing       func(ctx context.Context) error
	DBStats         func() sql.DBStats
	RedisStats      func() *redis.PoolStats
	RedisPing       func(ctx context.Context) error
	UserCount       func(ctx context.Context) (int, error)
	CompletionCount func(ctx context.Context) (int, error)
	// EmailVerified asks the identity provider about the caller. Setup is
	// refused when it is nil.
	EmailVerified func(ctx context.Context, claims *middleware.AccessTokenClaims) (bool, error)
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:         cfg.Service,
		validator:       validator.New(validator.WithRequiredStructEnabled()),
		storeDriver:     cfg.StoreDriver,
		storePing:       cfg.StorePing,
		dbStats:         cfg.DBStats,
		redisStats:      cfg.RedisStats,
		redisPing:       cfg.RedisPing,
		userCount:       cfg.UserCount,
		completionCount: cfg.CompletionCount,
		emailVerified:   cfg.EmailVerified,
	}
}

// RegisterRoutes registers on a router that is already authenticated.
// Access checks and setup are open to any signed-in user; the rest is
// permission guarded.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/access", h.GetAccess)
	r.Post("/setup", h.Setup)

	r.Group(func(r chi.Router) {
		r.Use(h.service.RequirePermission(CanManageUsers))
		r.Get("/admins", h.ListAdmins)
		r.Post("/admins", h.GrantAdmin)
		r.Delete("/admins/{uid}", h.RevokeAdmin)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.service.RequirePermission(CanViewAnalytics))
		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/store", h.GetStoreStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

// GetAccess reports the caller's admin record and stamps their last login.
func (h *Handler) GetAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := middleware.GetUserID(ctx)

	a, err := h.service.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.OK(w, AccessResponse{IsAdmin: false})
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.TouchLastLogin(ctx, uid); err != nil {
		slog.WarnContext(ctx, "admin last login not recorded", "user_id", uid, "error", err)
	}

	core.OK(w, AccessResponse{IsAdmin: true, Admin: a})
}

func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	verified := false
	if h.emailVerified != nil && h.service.allowed(claims.Email) {
		var err error
		verified, err = h.emailVerified(ctx, claims)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
	}

	a, err := h.service.Setup(ctx, claims.UserID, claims.Email, verified)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAllowed):
			core.JSONError(w, core.NewAppError(err, "this account is not on the admin allow-list",
				http.StatusForbidden, "NOT_ALLOWED"))
		case errors.Is(err, ErrEmailUnverified):
			core.JSONError(w, core.NewAppError(err, "verify your email address before admin setup",
				http.StatusForbidden, "EMAIL_NOT_VERIFIED"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, AccessResponse{IsAdmin: true, Admin: a})
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, admins)
}

func (h *Handler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role := req.Role
	perms := AllPermissions()
	if role == "" {
		role = RoleSuperAdmin
	}
	if req.Permissions != nil {
		perms = *req.Permissions
	}

	a, err := h.service.Assign(r.Context(), req.UID, req.Email, role, perms)
	if err != nil {
		if errors.Is(err, ErrInvalidRole) || errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, err.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}
	core.Created(w, a)
}

func (h *Handler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if uid == middleware.GetUserID(r.Context()) {
		core.BadRequest(w, "cannot revoke your own admin access")
		return
	}

	if err := h.service.Revoke(r.Context(), uid); err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.NoContent(w)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storeHealthy := true
	if h.storePing != nil {
		if err := h.storePing(ctx); err != nil {
			storeHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	response := SystemStatsResponse{
		Store: StoreStatus{
			Driver:  h.storeDriver,
			Healthy: storeHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Enabled: h.redisPing != nil,
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime:  readRuntimeStats(),
		Learners: h.getLearnerCounts(ctx),
	}

	core.OK(w, response)
}

func (h *Handler) GetStoreStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getLearnerCounts(ctx context.Context) LearnerCounts {
	var counts LearnerCounts
	if h.userCount != nil {
		if n, err := h.userCount(ctx); err == nil {
			counts.Users = &n
		} else {
			slog.WarnContext(ctx, "count users failed", "error", err)
		}
	}
	if h.completionCount != nil {
		if n, err := h.completionCount(ctx); err == nil {
			counts.Completions = &n
		} else {
			slog.WarnContext(ctx, "count completions failed", "error", err)
		}
	}
	return counts
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Store    StoreStatus   `json:"store"`
	Redis    RedisStatus   `json:"redis"`
	Runtime  RuntimeStats  `json:"runtime"`
	Learners LearnerCounts `json:"learners"`
}

// StoreStatus carries connection pool stats only for the postgres driver.
type StoreStatus struct {
	Driver  string       `json:"driver"`
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Enabled bool            `json:"enabled"`
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type LearnerCounts struct {
	Users       *int `json:"users,omitempty"`
	Completions *int `json:"completions,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
