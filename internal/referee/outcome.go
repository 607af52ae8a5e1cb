package referee

import (
	"errors"

	"github.com/iha-referee/backend/internal/ratelimit"
	"github.com/iha-referee/backend/internal/roster"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/validation"
)

const (
	outcomeAccepted = "accepted"
	outcomeError    = "error"
)

// Outcome classifies a submission error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return outcomeAccepted
	case errors.Is(err, validation.ErrMalformed):
		return "malformed"
	case errors.Is(err, validation.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, session.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, session.ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ratelimit.ErrRateExceeded):
		return "rate_exceeded"
	case errors.Is(err, roster.ErrAuthFailure):
		return "auth_failure"
	default:
		return outcomeError
	}
}
