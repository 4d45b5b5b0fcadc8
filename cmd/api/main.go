// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/mahuru-activation/internal/activity"
	"github.com/carterperez-dev/mahuru-activation/internal/admin"
	"github.com/carterperez-dev/mahuru-activation/internal/auth"
	"github.com/carterperez-dev/mahuru-activation/internal/character"
	"github.com/carterperez-dev/mahuru-activation/internal/cms"
	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/health"
	"github.com/carterperez-dev/mahuru-activation/internal/identity"
	"github.com/carterperez-dev/mahuru-activation/internal/media"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
	"github.com/carterperez-dev/mahuru-activation/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
		"identity", cfg.Identity.Provider,
	)

	if len(cfg.Fallback) > 0 {
		logger.Warn("provider configuration incomplete, using local development profile",
			"missing", strings.Join(cfg.Fallback, ","),
		)
	}

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	backend, err := docstore.Open(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("document store connected", "driver", backend.Driver)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis.Enabled() {
		logger.Info("redis connected",
			"pool_size", cfg.Redis.PoolSize,
		)
	} else {
		logger.Info("redis not configured, using in-process revocation list")
	}

	if err := ensureSigningKey(cfg, logger); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	bucket, err := newBucket(ctx, cfg)
	if err != nil {
		return err
	}

	store := backend.Store

	characterSvc := character.NewService(store)
	profileSvc := profile.NewService(profile.NewRepository(store), characterSvc, logger)
	activitySvc := activity.NewService(store, logger)
	cmsSvc := cms.NewService(store, logger)
	mediaSvc := media.NewService(store, bucket, logger)

	revocations := auth.NewMemoryRevocations()
	adminCache := admin.NoCache()
	if redis.Enabled() {
		revocations = auth.NewRedisRevocations(redis.Client)
		adminCache = admin.NewRedisCache(redis.Client)
	}
	adminSvc := admin.NewService(store, adminCache, cfg.IsAdminEmail, logger)

	authSvc := auth.NewService(
		auth.NewRepository(store),
		jwtManager,
		newIdentityProvider(cfg),
		profileSvc,
		revocations,
		logger,
	)

	authHandler := auth.NewHandler(authSvc)
	characterHandler := character.NewHandler(characterSvc)
	profileHandler := profile.NewHandler(profileSvc, cfg.Session.ResolveTimeout)
	activityHandler := activity.NewHandler(activitySvc, profileSvc, logger)
	cmsHandler := cms.NewHandler(cmsSvc, logger)
	mediaHandler := media.NewHandler(mediaSvc, logger)

	adminCfg := admin.HandlerConfig{
		Service:         adminSvc,
		StoreDriver:     backend.Driver,
		StorePing:       store.Ping,
		UserCount:       profileSvc.Count,
		CompletionCount: activitySvc.CountCompletions,
		EmailVerified:   authSvc.EmailVerified,
	}
	if backend.Database != nil {
		adminCfg.DBStats = backend.Database.Stats
	}

	var redisChecker health.Checker
	if redis.Enabled() {
		redisChecker = redis
		adminCfg.RedisStats = redis.PoolStats
		adminCfg.RedisPing = redis.Ping
	}
	adminHandler := admin.NewHandler(adminCfg)

	healthHandler := health.NewHandler(store, redisChecker)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		characterHandler.RegisterRoutes(r)
		cmsHandler.RegisterRoutes(r)
		activityHandler.RegisterRoutes(r, authenticator)
		profileHandler.RegisterRoutes(r, authenticator, activityHandler.RegisterMeRoutes)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticator)

			adminHandler.RegisterRoutes(r)
			cmsHandler.RegisterAdminRoutes(
				r,
				adminSvc.RequirePermission(admin.CanEditContent),
				adminSvc.RequirePermission(admin.CanEditLayout),
			)
			activityHandler.RegisterAdminRoutes(r, adminSvc.RequirePermission(admin.CanEditActivities))
			mediaHandler.RegisterAdminRoutes(r, adminSvc.RequirePermission(admin.CanManageMedia))
			profileHandler.RegisterAdminRoutes(r, adminSvc.RequirePermission(admin.CanManageUsers))
		})
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := backend.Close(); err != nil {
		logger.Error("document store close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func newIdentityProvider(cfg *config.Config) identity.Provider {
	if cfg.Identity.Provider == config.IdentityFirebase {
		return identity.NewFirebase(identity.FirebaseConfig{
			APIKey:       cfg.Firebase.APIKey,
			EmulatorHost: cfg.Firebase.AuthEmulatorHost,
			ContinueURL:  cfg.Site.URL,
		})
	}
	return identity.NewLocal(cfg.Identity.MinPasswordLength)
}

func newBucket(ctx context.Context, cfg *config.Config) (media.Bucket, error) {
	if cfg.Firebase.StorageBucket == "" {
		return media.NewMemoryBucket(strings.TrimRight(cfg.Site.URL, "/") + "/media"), nil
	}

	client, err := core.NewStorage(ctx, cfg.Firebase)
	if err != nil {
		return nil, err
	}
	return media.NewGCSBucket(client, cfg.Firebase.StorageBucket, cfg.Firebase.StorageEmulatorURL), nil
}

// ensureSigningKey writes a throwaway key pair for local runs. Production
// must provide its own key.
func ensureSigningKey(cfg *config.Config, logger *slog.Logger) error {
	path := cfg.JWT.PrivateKeyPath
	_, err := os.Stat(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if cfg.IsProduction() {
		return fmt.Errorf("jwt private key %s not found", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	publicPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".pub.pem"
	if err := auth.GenerateKeyPair(path, publicPath); err != nil {
		return err
	}

	logger.Warn("generated development signing key", "path", path)
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
