// Package validation decodes submitted payloads into domain types and checks
// their physical bounds.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed marks structurally invalid payloads.
	ErrMalformed = errors.New("malformed payload")
	// ErrOutOfRange marks well-formed payloads carrying impossible values.
	ErrOutOfRange = errors.New("value out of range")
)

// Kind distinguishes the two failure classes.
type Kind int

const (
	Malformed Kind = iota + 1
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Error describes a rejected payload.
type Error struct {
	Kind   Kind
	Fields []string
	Err    error // underlying decode error, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.sentinel().Error())
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) sentinel() error {
	if e.Kind == OutOfRange {
		return ErrOutOfRange
	}
	return ErrMalformed
}

// Is lets errors.Is match ErrMalformed / ErrOutOfRange.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func malformed(err error, fields ...string) *Error {
	return &Error{Kind: Malformed, Fields: fields, Err: err}
}
