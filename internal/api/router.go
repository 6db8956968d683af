package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/device-inventory/internal/auth"
)

// healthCheckTimeout bounds each backing-service check on /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/ws", s.handleWebSocket)

	manage := s.requirePermission(auth.PermDeviceManage)
	operate := s.requirePermission(auth.PermDeviceOperate)

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.With(manage).Post("/", s.handleCreateDevice)
		r.Get("/search", s.handleSearchDevices)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/stats", s.handleDeviceStats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.With(manage).Put("/", s.handleUpdateDevice)
			r.With(operate).Put("/checkout", s.handleCheckout)
			r.With(operate).Put("/checkin", s.handleCheckin)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.With(s.requirePermission(auth.PermUserManage)).Post("/", s.handleCreateUser)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleListHistory)
		r.Get("/{device_id}", s.handleDeviceHistory)
	})

	return r
}

// handleHealth reports the server version and the state of each backing
// service. Any failing check turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, checker := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":         overall,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"checks":         checks,
	})
}
