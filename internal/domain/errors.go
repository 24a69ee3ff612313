package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the HTTP layer can map it to a status
// code without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func Auth(format string, args ...any) *Error {
	return newError(KindAuth, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Upstream wraps a gateway or persistence failure that the caller did not
// cause and cannot fix.
func Upstream(err error, format string, args ...any) *Error {
	e := newError(KindUpstream, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of err, or KindUnknown for errors outside the
// taxonomy.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
