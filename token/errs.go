package token

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF     = errors.New("unexpected end of document")
	ErrUnexpectedElement = errors.New("unexpected element")
	ErrSyntax            = errors.New("xml syntax")
	ErrBadBase           = errors.New("bad xml:base")
)

// PosErr attaches a document position to an error.
type PosErr struct {
	Err error
	Pos Pos
}

func NewPosErr(err error, pos Pos) error {
	return &PosErr{Err: err, Pos: pos}
}

func (e *PosErr) Error() string {
	if e.Pos.IsZero() {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s at %s", e.Err.Error(), e.Pos.String())
}

func (e *PosErr) Unwrap() error {
	return e.Err
}
