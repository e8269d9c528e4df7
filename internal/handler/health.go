package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/tareas/internal/middleware"
	"github.com/deppfellow/tareas/internal/server"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"

	defaultHealthCheckTimeout = 5 * time.Second
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth pings the store and, when configured, Redis.
//
// A failing store answers 503. A failing Redis only degrades the service:
// reads fall back to the store and jobs are retried, so it still answers 200.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	status := healthStatusHealthy

	if cfg.HealthCheckEnabled("store") {
		if !h.runCheck(c.Request().Context(), &logger, checks, "store", h.server.Store.Ping) {
			status = healthStatusUnhealthy
		}
	}

	if h.server.Redis != nil && cfg.HealthCheckEnabled("redis") {
		ping := func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() }
		if !h.runCheck(c.Request().Context(), &logger, checks, "redis", ping) && status == healthStatusHealthy {
			status = healthStatusDegraded
		}
	}

	response := map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"store":       h.server.Config.Store.Driver,
		"checks":      checks,
	}

	if status == healthStatusUnhealthy {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordFailure(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Info().
		Str("status", status).
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// runCheck runs ping under the configured timeout, records the outcome in
// checks and reports whether it passed.
func (h *HealthHandler) runCheck(
	parent context.Context,
	logger *zerolog.Logger,
	checks map[string]interface{},
	name string,
	ping func(context.Context) error,
) bool {
	timeout := h.server.Config.Observability.HealthChecks.Timeout
	if timeout <= 0 {
		timeout = defaultHealthCheckTimeout
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		checks[name] = map[string]interface{}{
			"status":        healthStatusUnhealthy,
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msgf("%s health check failed", name)

		h.recordFailure(map[string]interface{}{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return false
	}

	checks[name] = map[string]interface{}{
		"status":        healthStatusHealthy,
		"response_time": elapsed.String(),
	}

	logger.Debug().
		Dur("response_time", elapsed).
		Msgf("%s health check passed", name)
	return true
}

func (h *HealthHandler) recordFailure(attributes map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attributes)
	}
}
