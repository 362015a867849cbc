// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and the auth
and account handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It is the composition root for the chi router.
  - Only this package and cmd/api import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/bizdesk/internal/platform/config"
	"github.com/taibuivan/bizdesk/internal/platform/constants"
	"github.com/taibuivan/bizdesk/internal/platform/metrics"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	"github.com/taibuivan/bizdesk/internal/users/account"
	"github.com/taibuivan/bizdesk/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups the HTTP handler sets mounted by the server.
type Handlers struct {
	// Liveness is the /health handler. It answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It answers 200 when all backends respond.
	Readiness http.HandlerFunc

	// Auth handles credential and session routes.
	Auth *auth.Handler

	// Account handles profile and operator routes.
	Account *account.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// The global rate limiter is bound to context and stops its janitor when
// context is cancelled.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, registry *metrics.Metrics, handlers Handlers) *Server {
	router := chi.NewRouter()

	// # Middleware Chain
	// RealIP runs before anything that reads RemoteAddr (logging, rate limits, audit).
	router.Use(middleware.RequestID())
	router.Use(chimw.RealIP)
	router.Use(middleware.StructuredLogger(log))
	router.Use(middleware.Debug(cfg.DebugResponses()))
	router.Use(middleware.PanicRecovery())
	router.Use(registry.Instrument)
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.NewRateLimiter(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst).Handler)
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	router.Get("/health", handlers.Liveness)
	router.Get("/ready", handlers.Readiness)
	router.Handle("/metrics", registry.Handler())

	// # Application API
	router.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", handlers.Auth.Routes())
		api.Mount("/users", handlers.Account.Routes())
	})

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
