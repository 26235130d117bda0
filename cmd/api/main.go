// Copyright (c) 2026 RoverLabs. All rights reserved.

// Command api is the entry point for the ClubHub HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis when the session store is configured.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers and authorization guards.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roverlabs/clubhub/internal/api"
	"github.com/roverlabs/clubhub/internal/auth"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/config"
	"github.com/roverlabs/clubhub/internal/platform/constants"
	"github.com/roverlabs/clubhub/internal/platform/middleware"
	"github.com/roverlabs/clubhub/internal/platform/migration"
	"github.com/roverlabs/clubhub/internal/platform/notify"
	pgstore "github.com/roverlabs/clubhub/internal/platform/postgres"
	redisstore "github.com/roverlabs/clubhub/internal/platform/redis"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("session_store", cfg.SessionStoreConfigured()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	// Without a session store the token service runs stateless: tokens verify
	// by signature and expiry alone, and server-side revocation is off.
	var sessionStore auth.SessionStore
	var checkSessionStore func() error

	if cfg.SessionStoreConfigured() {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		sessionStore = auth.NewSessionStore(rdb)
		checkSessionStore = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	} else {
		log.Warn("session_store_disabled",
			slog.String("effect", "token revocation degraded to expiry-only"),
		)
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(
		cfg.JWTPrivKeyPath,
		cfg.JWTPubKeyPath,
		constants.AuthIssuer,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.ResetTokenTTL,
	)
	must(log, err, "initialize token service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckSessionStore: checkSessionStore,
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditSink := audit.NewLogSink(log)
	notifier := notify.NewLogNotifier(log)

	userRepository := auth.NewUserRepository(pool)
	approvalRepository := auth.NewApprovalRepository(pool)

	authService := auth.NewService(
		userRepository,
		approvalRepository,
		sessionStore,
		tokenService,
		auditSink,
		notifier,
		cfg.BcryptCost,
	)

	authenticate := middleware.Authenticate(authService, auditSink)
	authHandler := auth.NewHandler(authService, authenticate)
	adminHandler := auth.NewAdminHandler(authService,
		authenticate,
		middleware.RequireRole(sec.RoleAdmin),
	)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Admin:     adminHandler,
	}

	// The server context outlives startup; it feeds the rate limiter's
	// background cleanup.
	server := api.NewServer(context.Background(), cfg, log, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
