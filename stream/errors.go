package stream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/uri"
)

var (
	ErrMalformedStructure = errors.New("malformed structure")
	ErrDuplicateElement   = errors.New("duplicate element")
	ErrMissingAttribute   = errors.New("missing required attribute")
	ErrTypeConversion     = errors.New("type conversion failure")
	ErrRecursionLimit     = errors.New("recursion limit exceeded")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrProtocolViolation  = errors.New("protocol violation")
	ErrNotNullable        = errors.New("null value for non-nullable type")
	ErrWriterState        = errors.New("invalid writer state")
)

// Error is a read or write failure. It matches its Kind and its Cause with
// errors.Is.
type Error struct {
	Kind  error
	Msg   string
	Pos   token.Pos
	Path  string
	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Msg != "" {
		sb.WriteString(": " + e.Msg)
	}
	if e.Cause != nil {
		sb.WriteString(": " + e.Cause.Error())
	}
	if !e.Pos.IsZero() {
		sb.WriteString(" at " + e.Pos.String())
	}
	if e.Path != "" {
		sb.WriteString(" (" + e.Path + ")")
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// kindOf maps errors of the lower layers onto error kinds.
func kindOf(err error) error {
	switch {
	case errors.Is(err, edm.ErrLiteral):
		return ErrTypeConversion
	case errors.Is(err, schema.ErrIncompatibleType):
		return ErrTypeConversion
	case errors.Is(err, schema.ErrUnknownType), errors.Is(err, edm.ErrUnknownType):
		return ErrInvalidReference
	case errors.Is(err, uri.ErrNoBase), errors.Is(err, uri.ErrBadURI), errors.Is(err, uri.ErrRelative):
		return ErrInvalidReference
	case errors.Is(err, token.ErrBadBase):
		return ErrInvalidReference
	}
	return ErrMalformedStructure
}

func newError(kind error, pos token.Pos, path string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Pos:   pos,
		Path:  path,
		Cause: cause,
	}
}
