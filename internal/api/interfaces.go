// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// Referee is the core service behind the competition endpoints.
// This allows mocking in tests
type Referee interface {
	Login(ctx context.Context, identity string, body []byte) (int, error)
	SubmitTelemetry(ctx context.Context, caller session.Caller, body []byte) (*models.TelemetryResponse, error)
	SubmitLock(ctx context.Context, caller session.Caller, body []byte) error
	SubmitDive(ctx context.Context, caller session.Caller, body []byte) error
	ServerTime() models.ServerTime
	TargetLocation() models.TargetLocation
	HazardZones() models.HazardResponse
	Stats(ctx context.Context) (models.Stats, error)
}

// SessionCounter reports the number of bound sessions.
type SessionCounter interface {
	Len() int
}

// AuthHandler handles login and clock operations
type AuthHandler interface {
	HandleLogin(c echo.Context) error
	HandleServerTime(c echo.Context) error
}

// TelemetryHandler handles position reports
type TelemetryHandler interface {
	HandleTelemetry(c echo.Context) error
}

// EventHandler handles lock and dive reports
type EventHandler interface {
	HandleLock(c echo.Context) error
	HandleDive(c echo.Context) error
}

// PublicationHandler serves data announced by the referees
type PublicationHandler interface {
	HandleTarget(c echo.Context) error
	HandleHazards(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
