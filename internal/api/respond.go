package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEMsgpack is the content type of MessagePack responses.
const MIMEMsgpack = "application/msgpack"

func wantsMsgpack(r *http.Request) bool {
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, MIMEMsgpack) || strings.Contains(accept, "application/x-msgpack")
}

// respond writes v as JSON, or as MessagePack when the client asks for it.
// MessagePack keys match the JSON field names.
func respond(c echo.Context, status int, v interface{}) error {
	if !wantsMsgpack(c.Request()) {
		return c.JSON(status, v)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, MIMEMsgpack, buf.Bytes())
}

// readBody returns the raw request body.
func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, &validation.Error{Kind: validation.Malformed, Err: err}
	}
	return body, nil
}

// callerOf derives the session caller of a request.
func callerOf(c echo.Context, id session.Identifier) session.Caller {
	address := c.RealIP()
	return session.Caller{
		Identity: id.Identify(c.Request(), address),
		Address:  address,
	}
}
