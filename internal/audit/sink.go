// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bizdesk/internal/platform/database/schema"
	"github.com/taibuivan/bizdesk/pkg/uuid"
)

// # Structured Log Sink

// SlogSink writes every entry as a structured log record.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger under the "audit" group.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Write emits entry at info level. Access denials are emitted at warn.
func (sink *SlogSink) Write(ctx context.Context, entry Entry) error {
	level := slog.LevelInfo
	if entry.Event == EventAccessDenied || entry.Event == EventAccountLocked {
		level = slog.LevelWarn
	}

	attributes := []slog.Attr{
		slog.String("event", string(entry.Event)),
		slog.Time("occurred_at", entry.OccurredAt),
		slog.String("ip", entry.Meta.IPAddress),
		slog.String("user_agent", entry.Meta.UserAgent),
		slog.String("request_id", entry.Meta.RequestID),
		slog.String("method", entry.Meta.Method),
		slog.String("path", entry.Meta.Path),
	}
	if entry.Actor != nil {
		attributes = append(attributes, slog.Group("actor",
			slog.String("id", entry.Actor.ID),
			slog.String("email", entry.Actor.Email),
			slog.String("role", string(entry.Actor.Role)),
		))
	}
	if len(entry.Fields) > 0 {
		attributes = append(attributes, slog.Any("fields", entry.Fields))
	}

	sink.logger.LogAttrs(ctx, level, "audit", attributes...)
	return nil
}

// # PostgreSQL Sink

// PostgresSink appends entries to the system.auditlog table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a sink backed by pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

/*
Write inserts entry as a single row.

Description: Request metadata is split into columns; extra fields are stored
as JSONB in the metadata column.

Parameters:
  - context: context.Context
  - entry: Entry

Returns:
  - error: Serialization or database failures
*/
func (sink *PostgresSink) Write(context context.Context, entry Entry) error {
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		table.Table, strings.Join(table.Columns(), ", "))

	metadata, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("audit_postgres_marshal_failed: %w", err)
	}

	var actorID, actorEmail, actorRole *string
	if entry.Actor != nil {
		role := string(entry.Actor.Role)
		actorID, actorEmail, actorRole = &entry.Actor.ID, &entry.Actor.Email, &role
	}

	_, err = sink.pool.Exec(context, query,
		uuid.New(),
		actorID,
		actorEmail,
		actorRole,
		string(entry.Event),
		metadata,
		nullable(entry.Meta.IPAddress),
		nullable(entry.Meta.UserAgent),
		nullable(entry.Meta.RequestID),
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("audit_postgres_insert_failed: %w", err)
	}
	return nil
}

// nullable maps an empty string to SQL NULL.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
