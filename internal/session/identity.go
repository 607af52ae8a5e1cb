package session

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// TokenHeader carries the session token in token mode.
const TokenHeader = "X-Session-Token"

// Identifier derives the session key of a request. The rest of the server
// only sees the resulting Caller, so schemes can be swapped freely.
type Identifier interface {
	// Identify returns the session key presented by req, or "" if none.
	Identify(req *http.Request, address string) string
	// Issue returns the key a successful login from req is bound under.
	Issue(req *http.Request, address string) string
	// Expose hands a freshly issued key back to the client.
	Expose(header http.Header, identity string)
}

// AddressIdentifier keys sessions by the caller's network address. This is
// what competition clients expect.
type AddressIdentifier struct{}

func (AddressIdentifier) Identify(_ *http.Request, address string) string { return address }
func (AddressIdentifier) Issue(_ *http.Request, address string) string    { return address }
func (AddressIdentifier) Expose(http.Header, string)                      {}

// TokenIdentifier issues a random token per login, returned and presented in
// TokenHeader.
type TokenIdentifier struct{}

func (TokenIdentifier) Identify(req *http.Request, _ string) string {
	return strings.TrimSpace(req.Header.Get(TokenHeader))
}

func (TokenIdentifier) Issue(*http.Request, string) string {
	return uuid.NewString()
}

func (TokenIdentifier) Expose(header http.Header, identity string) {
	header.Set(TokenHeader, identity)
}

// NewIdentifier returns the identifier for mode ("address" or "token").
func NewIdentifier(mode string) (Identifier, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "address":
		return AddressIdentifier{}, nil
	case "token":
		return TokenIdentifier{}, nil
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
}
