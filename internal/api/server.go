// Package api builds and runs the HTTP server for the analytics service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/article-analytics/internal/config"
	"github.com/jonesrussell/article-analytics/internal/handler"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/middleware"
	"github.com/jonesrussell/article-analytics/internal/telemetry"
)

const (
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	server *http.Server
	log    logger.Logger
}

// NewServer builds the router with standard middleware and all routes, and
// wraps it in an HTTP server using the configured timeouts. The done
// channel stops middleware background goroutines on shutdown.
func NewServer(
	cfg *config.Config,
	analysisHandler *handler.AnalysisHandler,
	articleHandler *handler.ArticleHandler,
	healthHandler *handler.HealthHandler,
	metrics *telemetry.Metrics,
	log logger.Logger,
	done <-chan struct{},
) *Server {
	if cfg.Service.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))

	SetupRoutes(router, cfg, analysisHandler, articleHandler, healthHandler, metrics, done)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Service.Port),
			Handler:      router,
			ReadTimeout:  cfg.Service.ReadTimeout,
			WriteTimeout: cfg.Service.WriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		log: log,
	}
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.log.Info("Shutdown signal received", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}
