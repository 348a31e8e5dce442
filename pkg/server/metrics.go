package server

import (
	"net/http"

	"secdash/pkg/log"
	"secdash/pkg/models"

	"github.com/labstack/echo/v4"
)

// Messages returned to clients; probe diagnostics stay in the log.
const (
	msgSecurityFailure = "Failed to retrieve CrowdSec metrics"
	msgSystemFailure   = "Failed to retrieve system metrics"
)

// getSecurityMetrics handles GET /api/crowdsec-metrics.
func (s *Server) getSecurityMetrics(ctx echo.Context) error {
	decisions, err := s.metrics.SecurityMetrics(ctx.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect security metrics")
		return ctx.JSON(http.StatusInternalServerError, models.NewErrorResponse(msgSecurityFailure))
	}

	if decisions == nil {
		decisions = []models.SecurityDecision{}
	}

	return ctx.JSON(http.StatusOK, decisions)
}

// getSystemMetrics handles GET /api/system-metrics.
func (s *Server) getSystemMetrics(ctx echo.Context) error {
	snapshot, err := s.metrics.SystemMetrics(ctx.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect system metrics")
		return ctx.JSON(http.StatusInternalServerError, models.NewErrorResponse(msgSystemFailure))
	}

	return ctx.JSON(http.StatusOK, snapshot)
}

// getHealth handles GET /api/health.
func (s *Server) getHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, models.HealthStatus{
		Status:    models.StatusHealthy,
		Timestamp: s.now().UTC(),
	})
}
