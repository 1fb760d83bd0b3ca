// Package server is the composition root: it opens storage, builds the
// services and handlers, mounts the routes, and runs the HTTP server with
// graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config ──► sqlite.DB ──► ReportService ──► ReportHandler
//	executor ──► ExecutionService ──► ExecuteHandler, LessonHandler
//	lesson.Catalogue ──► LessonHandler, ReportService
//	auth.TokenService ──► InstructorAuthService ──► AuthHandler, RequireAuth
//
// Each layer receives only what it needs: services see the repository
// interface, handlers see services.
package server

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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/mathcode/internal/auth"
	"github.com/sakif/mathcode/internal/config"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/handler"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/middleware"
	"github.com/sakif/mathcode/internal/report"
	sqliteRepo "github.com/sakif/mathcode/internal/repository/sqlite"
	"github.com/sakif/mathcode/internal/service"
	"github.com/sakif/mathcode/internal/web"
)

// Server owns the router and the database connection. The executor is owned
// by the caller, which closes it after Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires every dependency. exec may be nil: pages are still served and
// runs answer 503.
func New(cfg *config.Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(exec); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, for tests and for embedding behind another mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mounts:
//
//	GET    /                                  day list
//	GET    /lessons/{day}                     day page
//	POST   /lessons/{day}/problems/{key}/run  run one problem, HTML fragment
//	GET    /static/*                          embedded assets
//	GET    /healthz                           liveness + backend name
//	POST   /api/execute                       run code, JSON
//	POST   /api/diagnostic                    grade the day 1 diagnostic
//	GET    /api/sequences/{kind}              sequence terms and sum
//	POST   /api/reports                       create report
//	GET    /api/reports/{id}/pdf|markdown     export report
//	GET    /api/reports                       list (instructor)
//	DELETE /api/reports/{id}                  delete (instructor)
//	POST   /auth/login, /auth/logout          instructor session
//	GET    /auth/me                           (instructor)
//
// Instructor routes exist only when auth.jwt_secret is set.
//
// Middleware order matters: RequestID before Logger so the ID is logged,
// Recoverer inside Logger so a panic is logged as the 500 it becomes.
func (s *Server) setupRoutes(exec executor.Executor) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	catalogue, err := lesson.Load()
	if err != nil {
		return fmt.Errorf("loading lessons: %w", err)
	}
	pages, err := web.ParsePages()
	if err != nil {
		return err
	}
	exporter, err := report.NewExporter(s.config.Report.FontPath)
	if err != nil {
		return err
	}
	if !exporter.Unicode() {
		s.logger.Warn("report.font_path not set, PDF reports fall back to Latin labels")
	}

	execService := service.NewExecutionService(exec, s.logger)
	reportService := service.NewReportService(s.db, exporter, catalogue, s.logger)

	lessonHandler := handler.NewLessonHandler(catalogue, execService, pages, s.logger)
	executeHandler := handler.NewExecuteHandler(execService, s.logger)
	practiceHandler := handler.NewPracticeHandler(s.logger)
	reportHandler := handler.NewReportHandler(reportService, s.logger)

	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	s.router.Get("/", lessonHandler.HandleIndex)
	s.router.Get("/healthz", executeHandler.HandleHealth)
	s.router.Route("/lessons/{day}", func(r chi.Router) {
		r.Get("/", lessonHandler.HandleDay)
		r.Post("/problems/{key}/run", lessonHandler.HandleRun)
	})

	// requireInstructor stays nil when auth is disabled; instructor routes
	// are then simply not mounted.
	var requireInstructor func(http.Handler) http.Handler
	if s.config.AuthEnabled() {
		tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		if s.config.Auth.InstructorPasswordHash == "" {
			s.logger.Warn("auth.instructor_password_hash not set, instructor login will be refused")
		}
		authService := service.NewInstructorAuthService(
			s.config.Auth.InstructorPasswordHash, auth.NewPasswordService(), tokens, s.logger)
		authHandler := handler.NewAuthHandler(authService, s.logger)
		requireInstructor = auth.RequireAuth(tokens)

		s.router.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireInstructor).Get("/me", authHandler.HandleMe)
		})
	} else {
		s.logger.Warn("auth.jwt_secret not set, instructor routes are disabled")
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/execute", executeHandler.HandleExecute)
		r.Post("/diagnostic", practiceHandler.HandleDiagnostic)
		r.Get("/sequences/{kind}", practiceHandler.HandleSequence)

		r.Post("/reports", reportHandler.HandleCreate)
		r.Get("/reports/{id}/pdf", reportHandler.HandlePDF)
		r.Get("/reports/{id}/markdown", reportHandler.HandleMarkdown)

		if requireInstructor != nil {
			r.Group(func(r chi.Router) {
				r.Use(requireInstructor)
				r.Get("/reports", reportHandler.HandleList)
				r.Delete("/reports/{id}", reportHandler.HandleDelete)
			})
		}
	})

	return nil
}

// Start serves until SIGINT/SIGTERM or ctx is cancelled, then drains
// in-flight requests for up to 30 seconds and closes the database.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	// WriteTimeout must outlast the execution timeout plus container
	// start-up, or slow runs are cut off mid-response.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.Executor.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Storage.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
