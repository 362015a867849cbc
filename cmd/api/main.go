// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Bizdesk auth API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL and run migrations, or fall back to memory.
//  4. Connect to Redis, or fall back to memory.
//  5. Build the auth core (hasher, tokens, lockout, audit, gate).
//  6. Wire HTTP handlers.
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

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/bizdesk/internal/api"
	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/config"
	"github.com/taibuivan/bizdesk/internal/platform/constants"
	"github.com/taibuivan/bizdesk/internal/platform/metrics"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	"github.com/taibuivan/bizdesk/internal/platform/migration"
	pgstore "github.com/taibuivan/bizdesk/internal/platform/postgres"
	redisstore "github.com/taibuivan/bizdesk/internal/platform/redis"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/account"
	"github.com/taibuivan/bizdesk/internal/users/auth"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("postgres", cfg.DatabaseURL != ""),
		slog.Bool("redis", cfg.RedisURL != ""),
	)

	// Fail fast on unreachable backends instead of hanging at boot.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Background work (rate limiter janitors) stops with this context.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	registry := metrics.New()
	auditSinks := []audit.Sink{audit.NewSlogSink(log)}
	var health api.HealthDependencies

	// ── 3. Identity Store ─────────────────────────────────────────────────
	var users identity.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.PoolOptions{}, log)
		must(log, err, "connect to postgres")
		defer closePool(log, pool)

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		users = identity.NewPostgresStore(pool)
		auditSinks = append(auditSinks, audit.NewPostgresSink(pool))
		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
	} else {
		log.Warn("identity_store_in_memory", slog.String("reason", "DATABASE_URL not set"))
		users = identity.NewMemoryStore()
	}

	// ── 4. Single-use Token Stores ────────────────────────────────────────
	var resetTokens, verificationTokens auth.TokenStore
	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, client)

		resetTokens = auth.NewResetTokenStore(client)
		verificationTokens = auth.NewVerificationTokenStore(client)
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, client) }
	} else {
		log.Warn("token_store_in_memory", slog.String("reason", "REDIS_URL not set"))
		resetTokens = auth.NewMemoryTokenStore(nil)
		verificationTokens = auth.NewMemoryTokenStore(nil)
	}

	// ── 5. Auth Core ──────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.TokenConfig())
	must(log, err, "initialize token service")
	if tokens.SharesSecret() {
		log.Warn("jwt_refresh_secret_shared", slog.String("hint", "set JWT_REFRESH_SECRET to a distinct value"))
	}

	lockout := identity.NewLockout(users, cfg.LockoutPolicy())
	auditLogger := audit.NewLogger(log, auditSinks...)
	gate := middleware.NewGate(tokens, users, lockout, auditLogger, registry)
	authLimiter := middleware.NewRateLimiter(rootCtx, constants.AuthRateLimitRPS, constants.AuthRateLimitBurst)

	authService := auth.NewService(auth.Dependencies{
		Users:              users,
		Lockout:            lockout,
		Hasher:             sec.NewPasswordHasher(cfg.BcryptCost),
		Tokens:             tokens,
		ResetTokens:        resetTokens,
		VerificationTokens: verificationTokens,
		Audit:              auditLogger,
		Metrics:            registry,
	})
	accountService := account.NewService(users, lockout, auditLogger)

	// ── 6. HTTP Handlers ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(health, log)
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, gate, authLimiter, !cfg.IsDevelopment()),
		Account:   account.NewHandler(accountService, gate),
	}
	server := api.NewServer(rootCtx, cfg, log, registry, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
	}

	// Flush audit writes still in flight before the store connections close.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	if err := auditLogger.Drain(drainCtx); err != nil {
		log.Error("audit_drain_incomplete", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

func closePool(log *slog.Logger, pool *pgxpool.Pool) {
	log.Info("postgres_pool_closing")
	pool.Close()
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("redis_client_closing")
	if err := client.Close(); err != nil {
		log.Error("redis_close_failed", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failed",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
