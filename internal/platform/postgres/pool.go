// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool shared by
// the identity store and the audit sink.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// database connections (pgxpool); the stores built on top of it live in
// their domain packages.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bizdesk/internal/platform/constants"
)

// Pool defaults sized for an auth workload: short queries, bursts at login time.
const (
	defaultMaxConns   = 20
	defaultMinConns   = 2
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// PoolOptions tunes the pool. Zero values fall back to the defaults.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// ApplicationName is reported in pg_stat_activity.
	ApplicationName string
}

// NewPool creates and validates a new PostgreSQL connection pool.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - options: Pool tuning.
//   - logger: Structured logger for pool-level events.
func NewPool(ctx context.Context, dsn string, options PoolOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := buildConfig(dsn, options)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	// Validate that we can actually reach the database.
	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.Int("max_conns", int(poolConfig.MaxConns)),
		slog.String("database", poolConfig.ConnConfig.Database),
	)
	return pool, nil
}

// buildConfig parses dsn and applies the pool tuning without connecting.
func buildConfig(dsn string, options PoolOptions) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if options.MaxConns > 0 {
		poolConfig.MaxConns = options.MaxConns
	}
	poolConfig.MinConns = min(defaultMinConns, poolConfig.MaxConns)
	if options.MinConns > 0 {
		poolConfig.MinConns = min(options.MinConns, poolConfig.MaxConns)
	}

	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	applicationName := options.ApplicationName
	if applicationName == "" {
		applicationName = constants.AppName
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	// Bound every statement by the request deadline so a stuck query cannot hold a login open.
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
		_, err := connection.Exec(ctx, timeoutQuery)
		return err
	}

	return poolConfig, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}
