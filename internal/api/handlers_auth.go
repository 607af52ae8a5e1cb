// handlers_auth.go - Login and server clock handlers
package api

import (
	"net/http"

	"github.com/iha-referee/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// AuthHandlerImpl implements the AuthHandler interface
type AuthHandlerImpl struct {
	referee    Referee
	identifier session.Identifier
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(referee Referee, identifier session.Identifier) AuthHandler {
	return &AuthHandlerImpl{referee: referee, identifier: identifier}
}

// HandleLogin authenticates a team and binds the caller to it. The body of a
// successful response is the team number.
func (h *AuthHandlerImpl) HandleLogin(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}

	identity := h.identifier.Issue(c.Request(), c.RealIP())
	team, err := h.referee.Login(c.Request().Context(), identity, body)
	if err != nil {
		return FromError(err)
	}

	h.identifier.Expose(c.Response().Header(), identity)
	return respond(c, http.StatusOK, team)
}

// HandleServerTime returns the authority clock
func (h *AuthHandlerImpl) HandleServerTime(c echo.Context) error {
	return respond(c, http.StatusOK, h.referee.ServerTime())
}
