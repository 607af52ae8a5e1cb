// handlers_events.go - Lock and dive report handlers
package api

import (
	"net/http"

	"github.com/iha-referee/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// EventHandlerImpl implements the EventHandler interface
type EventHandlerImpl struct {
	referee    Referee
	identifier session.Identifier
}

// NewEventHandler creates a new event handler
func NewEventHandler(referee Referee, identifier session.Identifier) EventHandler {
	return &EventHandlerImpl{referee: referee, identifier: identifier}
}

// HandleLock records a target lock for the caller's team
func (h *EventHandlerImpl) HandleLock(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return FromError(err)
	}
	if err := h.referee.SubmitLock(c.Request().Context(), callerOf(c, h.identifier), body); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusOK)
}

// HandleDive records a terminal dive for the caller's team
func (h *EventHandlerImpl) HandleDive(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return FromError(err)
	}
	if err := h.referee.SubmitDive(c.Request().Context(), callerOf(c, h.identifier), body); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusOK)
}
