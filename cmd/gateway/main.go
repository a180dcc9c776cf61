// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

// Command gateway is the entry point for the Procura session gateway.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (.env in development).
//  3. Open the token store backend (redis, bolt, or memory).
//  4. Construct the upstream client and session manager.
//  5. Reconcile persisted sessions in the background.
//  6. Start the session expiry clock.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adhiwira/procura/internal/api"
	"github.com/adhiwira/procura/internal/platform/config"
	"github.com/adhiwira/procura/internal/platform/constants"
	redisstore "github.com/adhiwira/procura/internal/platform/redis"
	"github.com/adhiwira/procura/internal/platform/sec"
	"github.com/adhiwira/procura/internal/session"
	"github.com/adhiwira/procura/internal/tokenstore"
	"github.com/adhiwira/procura/internal/upstream"
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

	log.Info("[Procura] gateway_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Info("dotenv_loaded")
	}

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
		slog.String("store_backend", cfg.StoreBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Token Store ────────────────────────────────────────────────────
	store, err := openStore(startupCtx, cfg, log)
	must(log, err, "open token store")
	defer func() {
		log.Info("closing token store")
		if cerr := store.Close(); cerr != nil {
			log.Error("token store close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Session Manager ────────────────────────────────────────────────
	gateway, err := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout, log)
	must(log, err, "construct upstream client")

	outbox := session.NewOutbox()
	manager := session.NewManager(store, gateway, outbox, log,
		session.WithInactivityWindow(cfg.InactivityWindow),
	)

	cookies := sec.NewCookieService(cfg.SessionSecret, constants.AuthIssuer)

	// Background context governing the reconciler, clock, and rate limiter.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 5. Session Reconciliation ─────────────────────────────────────────
	// Runs in the background; guarded routes answer 503 until it completes.
	go func() {
		if err := manager.Reconcile(appCtx); err != nil {
			log.Error("session_reconciliation_failed", slog.Any("error", err))
		}
	}()

	// ── 6. Expiry Clock ───────────────────────────────────────────────────
	clock := session.NewClock(manager, cfg.ExpirySweep, log)
	go clock.Run(appCtx)

	// ── 7. Health handlers (wired with real dependency checkers) ─────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckStore: func() error {
			return store.Ping(context.Background())
		},
		CheckSessions: func() error {
			if !manager.Ready() {
				return errors.New("session reconciliation in progress")
			}
			return nil
		},
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Session:   api.NewSessionHandler(manager, outbox),
		Proxy:     api.NewProxyHandler(gateway.BaseURL(), store, log),
	}

	server := api.NewServer(appCtx, cfg, log, manager, store, cookies, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
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

	// Stop the clock and reconciler before draining requests.
	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// openStore constructs the configured token store backend.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (tokenstore.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		return tokenstore.NewRedisStore(client), nil

	case config.StoreBackendBolt:
		return tokenstore.OpenBolt(cfg.BoltPath)

	case config.StoreBackendMemory:
		log.Warn("memory_store_selected", slog.String("note", "sessions will not survive a restart"))
		return tokenstore.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
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
