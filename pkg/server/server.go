// Package server exposes the collected metrics over HTTP and serves the
// dashboard bundle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"secdash/pkg/config"
	"secdash/pkg/log"
	"secdash/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const apiPrefix = "/api/"

// ErrServerStart is returned when the listener cannot be started.
var ErrServerStart = errors.New("server startup failed")

// MetricsSource provides the data behind the metrics endpoints.
type MetricsSource interface {
	SecurityMetrics(ctx context.Context) ([]models.SecurityDecision, error)
	SystemMetrics(ctx context.Context) (*models.SystemSnapshot, error)
}

// Server is the dashboard's HTTP front end.
type Server struct {
	cfg     config.ServerConfig
	echo    *echo.Echo
	version string
	metrics MetricsSource
	now     func() time.Time
}

// New creates a Server with its routes registered.
func New(cfg config.ServerConfig, version string, metrics MetricsSource) *Server {
	srv := &Server{
		cfg:     cfg,
		echo:    echo.New(),
		version: version,
		metrics: metrics,
		now:     time.Now,
	}
	srv.setupRoutes()
	return srv
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until SIGINT or SIGTERM arrives, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)

	go func() {
		log.Info().
			Str("addr", s.cfg.Addr()).
			Str("version", s.version).
			Str("static_dir", s.cfg.StaticDir).
			Strs("cors_origins", s.cfg.CORSOrigins).
			Msg("Starting metrics server")

		if err := s.echo.Start(s.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("%w: %w", ErrServerStart, err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Received signal")
	}

	return s.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))

	if s.cfg.StaticDir != "" {
		if info, err := os.Stat(s.cfg.StaticDir); err == nil && info.IsDir() {
			s.echo.Use(middleware.StaticWithConfig(middleware.StaticConfig{
				Root:  s.cfg.StaticDir,
				HTML5: true,
				Skipper: func(ctx echo.Context) bool {
					return strings.HasPrefix(ctx.Request().URL.Path, apiPrefix)
				},
			}))
		} else {
			log.Warn().Str("static_dir", s.cfg.StaticDir).Msg("Static directory not found, dashboard bundle disabled")
		}
	}

	api := s.echo.Group("/api")
	api.GET("/crowdsec-metrics", s.getSecurityMetrics)
	api.GET("/system-metrics", s.getSystemMetrics)
	api.GET("/health", s.getHealth)
	api.GET("/openapi.yml", s.serveOpenAPISpec)
}
