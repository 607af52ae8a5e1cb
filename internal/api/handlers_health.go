// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	referee  Referee
	sessions SessionCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, referee Referee, sessions SessionCounter) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		referee:  referee,
		sessions: sessions,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	stats, err := h.referee.Stats(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("health check: %v", err)
		return NewServiceUnavailableError("store unavailable")
	}

	sessions := 0
	if h.sessions != nil {
		sessions = h.sessions.Len()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  h.version,
		"sessions": sessions,
		"store":    stats,
	})
}
