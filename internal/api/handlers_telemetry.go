// handlers_telemetry.go - Position report handler
package api

import (
	"net/http"

	"github.com/iha-referee/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// TelemetryHandlerImpl implements the TelemetryHandler interface
type TelemetryHandlerImpl struct {
	referee    Referee
	identifier session.Identifier
}

// NewTelemetryHandler creates a new telemetry handler
func NewTelemetryHandler(referee Referee, identifier session.Identifier) TelemetryHandler {
	return &TelemetryHandlerImpl{referee: referee, identifier: identifier}
}

// HandleTelemetry accepts a position report and answers with the server time
// and the positions of the other teams.
func (h *TelemetryHandlerImpl) HandleTelemetry(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return FromError(err)
	}

	resp, err := h.referee.SubmitTelemetry(c.Request().Context(), callerOf(c, h.identifier), body)
	if err != nil {
		return FromError(err)
	}
	return respond(c, http.StatusOK, resp)
}
