// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package api wires together the HTTP router, middleware chain, and all
gateway handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/gateway are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/adhiwira/procura/internal/guard"
	"github.com/adhiwira/procura/internal/platform/config"
	"github.com/adhiwira/procura/internal/platform/constants"
	"github.com/adhiwira/procura/internal/platform/middleware"
	"github.com/adhiwira/procura/internal/platform/sec"
	"github.com/adhiwira/procura/internal/session"
	"github.com/adhiwira/procura/internal/tokenstore"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all gateway HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Session handles the authentication lifecycle (login, logout, state).
	Session *SessionHandler

	// Proxy forwards guarded requests to the upstream procurement API.
	Proxy *ProxyHandler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger,
	manager *session.Manager, store tokenstore.Store, cookies *sec.CookieService, h Handlers) *Server {

	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)
	r.Use(middleware.SessionCookie(cookies, cfg.IsProduction()))
	r.Use(middleware.ActivityStamper(manager))

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Authentication Lifecycle
	r.Mount("/auth", h.Session.Routes())
	r.Get("/session/state", h.Session.state)

	// # Guarded Upstream Proxy
	// One route group per role; the guard admits only matching sessions.
	for _, role := range sec.All() {
		role := role
		r.Route("/api/"+role.Tag(), func(group chi.Router) {
			group.Use(guard.Protect(manager, store, role))
			group.Handle("/*", h.Proxy)
		})
	}

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
