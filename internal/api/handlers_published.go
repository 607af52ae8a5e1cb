// handlers_published.go - Target and hazard zone handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PublicationHandlerImpl implements the PublicationHandler interface
type PublicationHandlerImpl struct {
	referee Referee
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(referee Referee) PublicationHandler {
	return &PublicationHandlerImpl{referee: referee}
}

// HandleTarget returns the visual marker location
func (h *PublicationHandlerImpl) HandleTarget(c echo.Context) error {
	return respond(c, http.StatusOK, h.referee.TargetLocation())
}

// HandleHazards returns the active hazard zones
func (h *PublicationHandlerImpl) HandleHazards(c echo.Context) error {
	return respond(c, http.StatusOK, h.referee.HazardZones())
}
