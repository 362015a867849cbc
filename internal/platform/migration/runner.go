// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the SQL schema for the identity store and the
// audit log at startup using golang-migrate.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const pgx5Scheme = "pgx5://"

// RunUp applies all pending UP migrations and refuses to run on a dirty schema.
//
// # Parameters
//   - dsn: A postgres:// or postgresql:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, pgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &migrateLogger{logger: logger}

	fromVersion, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to read version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration: schema is dirty at version %d", fromVersion)
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(fromVersion)))
		return nil
	case err != nil:
		return fmt.Errorf("migration: up failed: %w", err)
	}

	toVersion, _, _ := migrator.Version()
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(fromVersion)),
		slog.Uint64("to_version", uint64(toVersion)),
	)
	return nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if sourceErr != nil {
		logger.Error("migration_source_close_failed", slog.Any("error", sourceErr))
	}
	if databaseErr != nil {
		logger.Error("migration_db_close_failed", slog.Any("error", databaseErr))
	}
}

// pgx5DSN rewrites a postgres URL to the pgx5:// scheme that the driver registers.
func pgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return pgx5Scheme + rest
		}
	}
	return dsn
}

// migrateLogger forwards golang-migrate output to slog at debug level.
type migrateLogger struct {
	logger *slog.Logger
}

func (adapter *migrateLogger) Printf(format string, args ...any) {
	adapter.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (adapter *migrateLogger) Verbose() bool {
	return adapter.logger.Enabled(context.Background(), slog.LevelDebug)
}
