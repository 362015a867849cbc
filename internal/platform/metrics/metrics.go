// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus instrumentation for HTTP traffic and
// authentication outcomes.
//
// Every collector lives on a private registry owned by [Metrics], so several
// instances (one per test) can coexist. All methods are safe on a nil receiver.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// # Outcome Labels

const (
	LoginSucceeded   = "success"
	LoginBadPassword = "bad_password"
	LoginUnknownUser = "unknown_user"
	LoginInactive    = "inactive"
	LoginLocked      = "locked"
	LoginError       = "error"

	RefreshSucceeded = "success"
	RefreshRejected  = "rejected"
)

// Metrics owns the collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginAttempts  *prometheus.CounterVec
	accountLocks   prometheus.Counter
	gateRejections *prometheus.CounterVec
	tokenRefreshes *prometheus.CounterVec
}

// New creates and registers every collector, including the Go runtime and process collectors.
func New() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		accountLocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_account_locks_total",
			Help: "Accounts locked after reaching the failed attempt threshold.",
		}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_rejections_total",
			Help: "Requests rejected by the authentication gate, by reason.",
		}, []string{"reason"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
	}

	metrics.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.httpInFlight,
		metrics.httpRequestsTotal,
		metrics.httpRequestDuration,
		metrics.loginAttempts,
		metrics.accountLocks,
		metrics.gateRejections,
		metrics.tokenRefreshes,
	)
	return metrics
}

// Registry exposes the underlying registry, mainly for tests.
func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

// # Authentication Counters

// LoginAttempt counts a login by outcome.
func (metrics *Metrics) LoginAttempt(outcome string) {
	if metrics == nil {
		return
	}
	metrics.loginAttempts.WithLabelValues(outcome).Inc()
}

// AccountLocked counts a transition into the locked state.
func (metrics *Metrics) AccountLocked() {
	if metrics == nil {
		return
	}
	metrics.accountLocks.Inc()
}

// GateRejected counts a request rejected by the gate.
func (metrics *Metrics) GateRejected(reason string) {
	if metrics == nil {
		return
	}
	metrics.gateRejections.WithLabelValues(reason).Inc()
}

// TokenRefresh counts a refresh exchange by outcome.
func (metrics *Metrics) TokenRefresh(outcome string) {
	if metrics == nil {
		return
	}
	metrics.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// # HTTP Instrumentation

// Instrument measures in-flight requests, totals and latency per chi route pattern.
func (metrics *Metrics) Instrument(next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		metrics.httpInFlight.Inc()
		defer metrics.httpInFlight.Dec()

		startTime := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		// Route patterns keep label cardinality bounded (no raw IDs).
		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(recorder.code)

		metrics.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(startTime).Seconds())
		metrics.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

// statusWriter remembers the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (writer *statusWriter) WriteHeader(code int) {
	writer.code = code
	writer.ResponseWriter.WriteHeader(code)
}
