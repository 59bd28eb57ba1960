// Package dashboard wires the HTTP surface: the JSON API, the server-rendered
// dashboard and the public pages codes point to.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/config"
	"github.com/corp-qr-hub/internal/dashboard/handler"
	"github.com/corp-qr-hub/internal/dashboard/service"
)

const sessionSweepInterval = time.Minute

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	httpRouter      *gin.Engine
	sessions        *service.SessionRegistry
	shutdownTimeout time.Duration
	sweepCtx        context.Context
	stopSweep       context.CancelFunc
}

// NewServer creates and configures the HTTP server over the given service
func NewServer(log *slog.Logger, cfg *config.Config, entryService service.EntryService) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	tmpl, err := handler.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	httpRouter.SetHTMLTemplate(tmpl)

	sessions := service.NewSessionRegistry(cfg.Server.SessionTTL)

	entryHandler := handler.NewEntryHandler(log, entryService)
	publicHandler := handler.NewPublicHandler(log, entryService)
	dashboardHandler := handler.NewDashboardHandler(log, entryService, sessions, cfg.Server.SessionCookie, cfg.Server.SessionTTL)

	setupRouter(log, httpRouter, entryHandler, publicHandler, dashboardHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		sessions:        sessions,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		sweepCtx:        sweepCtx,
		stopSweep:       stopSweep,
	}, nil
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests and sweeping idle sessions. It
// blocks until the server stops.
func (s *Server) Start() error {
	go s.sessions.Run(s.sweepCtx, sessionSweepInterval)

	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within the shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	s.stopSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
