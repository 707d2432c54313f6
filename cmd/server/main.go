// cmd/server is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventops/eventops/internal/config"
	"github.com/eventops/eventops/internal/database"
	"github.com/eventops/eventops/internal/handler"
	"github.com/eventops/eventops/internal/model"
	"github.com/eventops/eventops/internal/repository"
	"github.com/eventops/eventops/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ── 1. Pick the record store ─────────────────────────────────────────
	var store repository.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()

		pg := repository.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema", zap.Error(err))
		}
		store = pg
		logger.Info("using postgres store")
	} else {
		store = repository.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	authSvc := service.NewAuthService(store, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, logger)
	eventSvc := service.NewEventService(store, logger)
	reservationSvc := service.NewReservationService(store, logger)
	ticketSvc := service.NewTicketService(store)

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	reservationHandler := handler.NewReservationHandler(reservationSvc, ticketSvc)

	// ── 3. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	authed := handler.Authenticator(authSvc)
	adminOnly := handler.RequireRole(model.RoleAdmin)
	participantOnly := handler.RequireRole(model.RoleParticipant)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListPublic)
		r.Get("/{id}", eventHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authed, adminOnly)
			r.Get("/admin", eventHandler.ListAdmin)
			r.Post("/", eventHandler.Create)
			r.Patch("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authed, participantOnly)
			r.Post("/", reservationHandler.Create)
			r.Get("/my", reservationHandler.ListMine)
			r.Patch("/{id}/cancel", reservationHandler.Cancel)
			r.Get("/{id}/ticket", reservationHandler.Ticket)
		})

		r.Group(func(r chi.Router) {
			r.Use(authed, adminOnly)
			r.Get("/admin", reservationHandler.ListAdmin)
			r.Patch("/{id}/status", reservationHandler.UpdateStatus)
		})
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
