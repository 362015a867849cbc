// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit records security-relevant authentication events.

# Delivery

Callers never wait on an audit write. [Logger.LogAuthEvent] hands the entry to
a background goroutine with a detached, time-bounded context and returns
immediately. A failing sink is logged and otherwise ignored: losing an audit
entry never fails the request that produced it.
*/
package audit

import (
	"context"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

// # Event Catalogue

// Event names an auditable occurrence.
type Event string

const (
	EventUserRegistered         Event = "user_registered"
	EventLoginSuccess           Event = "login_success"
	EventLoginFailed            Event = "login_failed"
	EventAccountLocked          Event = "account_locked"
	EventLogout                 Event = "logout"
	EventTokenRefreshed         Event = "token_refreshed"
	EventTokenRefreshFailed     Event = "token_refresh_failed"
	EventPasswordChanged        Event = "password_changed"
	EventPasswordResetRequested Event = "password_reset_requested"
	EventPasswordResetCompleted Event = "password_reset_completed"
	EventEmailVerified          Event = "email_verified"
	EventAccountDeactivated     Event = "account_deactivated"
	EventAccountUnlocked        Event = "account_unlocked"
	EventAccessDenied           Event = "access_denied"
)

// # Entry Model

// Actor is who triggered the event. Nil for anonymous callers.
type Actor struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  sec.Role `json:"role,omitempty"`
}

// RequestMeta describes the HTTP request an event originated from.
type RequestMeta struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
}

// MetaFromRequest captures the request fields worth keeping in an audit entry.
func MetaFromRequest(request *http.Request) RequestMeta {
	return RequestMeta{
		IPAddress: clientIP(request),
		UserAgent: request.UserAgent(),
		RequestID: ctxutil.GetRequestID(request.Context()),
		Method:    request.Method,
		Path:      request.URL.Path,
	}
}

// Entry is a single audit record as delivered to a [Sink].
type Entry struct {
	Event      Event          `json:"event"`
	Actor      *Actor         `json:"actor,omitempty"`
	Meta       RequestMeta    `json:"meta"`
	Fields     map[string]any `json:"fields,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink persists audit entries.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// # Logger

// defaultWriteTimeout bounds a single background write.
const defaultWriteTimeout = 5 * time.Second

// Logger fans audit entries out to its sinks asynchronously.
//
// A nil *Logger is valid and drops every entry.
type Logger struct {
	sinks        []Sink
	logger       *slog.Logger
	writeTimeout time.Duration
	now          func() time.Time
	pending      sync.WaitGroup
}

// NewLogger creates a Logger writing to sinks. Operational failures go to logger.
func NewLogger(logger *slog.Logger, sinks ...Sink) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		sinks:        sinks,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}
}

/*
LogAuthEvent records event without blocking the caller.

Parameters:
  - ctx: context.Context (values are kept, cancellation is not)
  - event: Event
  - actor: *Actor (nil when anonymous)
  - meta: RequestMeta
  - fields: map[string]any (copied before dispatch)
*/
func (l *Logger) LogAuthEvent(ctx context.Context, event Event, actor *Actor, meta RequestMeta, fields map[string]any) {
	if l == nil || len(l.sinks) == 0 {
		return
	}

	entry := Entry{
		Event:      event,
		Actor:      actor,
		Meta:       meta,
		Fields:     maps.Clone(fields),
		OccurredAt: l.now().UTC(),
	}
	detached := context.WithoutCancel(ctx)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		l.dispatch(detached, entry)
	}()
}

// Drain blocks until every entry dispatched so far has been written or ctx ends.
func (l *Logger) Drain(ctx context.Context) error {
	if l == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch writes entry to every sink, logging failures and recovering panics.
func (l *Logger) dispatch(ctx context.Context, entry Entry) {
	for _, sink := range l.sinks {
		l.writeOne(ctx, sink, entry)
	}
}

func (l *Logger) writeOne(ctx context.Context, sink Sink, entry Entry) {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			l.logger.Error("audit_sink_panic",
				slog.String("event", string(entry.Event)),
				slog.Any("panic", recovered),
			)
		}
	}()

	if err := sink.Write(ctx, entry); err != nil {
		l.logger.Error("audit_write_failed",
			slog.String("event", string(entry.Event)),
			slog.String("request_id", entry.Meta.RequestID),
			slog.Any("error", err),
		)
	}
}

// clientIP prefers the address resolved by the RealIP middleware.
func clientIP(request *http.Request) string {
	if host, _, err := net.SplitHostPort(request.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(request.RemoteAddr)
}
