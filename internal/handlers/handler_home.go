package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// getHealth godoc
// @Summary Show the status of server.
// @Description Reports liveness and, when configured, the reachability of the store and lock backends.
// @Tags root
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 503 {object} dto.Envelope "A backing service is unreachable"
// @Router /health [get]
func getHealth(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Health check failed",
					slog.String("check", name), slog.String("error", err.Error()))
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, dto.Fail("unhealthy", "a backing service is unavailable", status))
			return
		}
		c.JSON(http.StatusOK, dto.OK(status))
	}
}
