// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root — the entire dependency chain is
// assembled here:
//
//	sqlite.DB → IdentityService / TaskService → AuthHandler / TaskHandler
//	config → PasswordService / TokenService
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete *sqlite.DB), handlers get services. The
// handler never touches the database; the service never touches HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/taskify/internal/auth"
	"github.com/sakif/taskify/internal/config"
	"github.com/sakif/taskify/internal/handler"
	"github.com/sakif/taskify/internal/middleware"
	sqliteRepo "github.com/sakif/taskify/internal/repository/sqlite"
	"github.com/sakif/taskify/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires the full dependency graph.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register      → create account, returns token
//	POST   /api/auth/login         → authenticate, returns token
//	GET    /api/me                 → current account          (bearer)
//	DELETE /api/me                 → delete account + tasks   (bearer)
//	GET    /api/tasks              → filtered/sorted list     (bearer)
//	POST   /api/tasks              → create task              (bearer)
//	GET    /api/tasks/{id}         → single task              (bearer)
//	PUT    /api/tasks/{id}         → partial update           (bearer)
//	DELETE /api/tasks/{id}         → delete task              (bearer)
//	POST   /api/tasks/{id}/toggle  → flip completion          (bearer)
//
// MIDDLEWARE ORDER MATTERS — executed in the order added:
// RequestID → RealIP → Recoverer → Logger, then RequireAuth on the
// protected group only. The two auth routes stay outside that group;
// everything else under /api demands a valid token.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	identityService := service.NewIdentityService(s.db, passwords, tokens, s.logger)
	taskService := service.NewTaskService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(identityService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Delete("/me", authHandler.HandleDeleteMe)

			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Get("/tasks/{id}", taskHandler.HandleGet)
			r.Put("/tasks/{id}", taskHandler.HandleUpdate)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)
			r.Post("/tasks/{id}/toggle", taskHandler.HandleToggle)
		})
	})

	return nil
}

// Start runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
