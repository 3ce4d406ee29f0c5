// Package apperror defines the typed failures shared by every layer of the
// service and their HTTP status mapping.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

var kindNames = map[Kind]string{
	KindBadRequest:   "BadRequestError",
	KindUnauthorized: "UnauthorizedError",
	KindForbidden:    "ForbiddenError",
	KindNotFound:     "NotFoundError",
	KindConflict:     "ConflictError",
	KindInternal:     "InternalServerError",
}

var kindStatus = map[Kind]int{
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindInternal:     http.StatusInternalServerError,
}

// String returns the error name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Error"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a failure carrying a kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status code of the error.
func (e *Error) Status() int { return e.Kind.Status() }

func newError(kind Kind, message string, cause []error) *Error {
	e := &Error{Kind: kind, Message: message}
	if len(cause) > 0 {
		e.Cause = cause[0]
	}
	if e.Message == "" {
		e.Message = kind.String()
	}
	return e
}

// BadRequest returns a 400 error.
func BadRequest(message string, cause ...error) *Error {
	return newError(KindBadRequest, message, cause)
}

// Unauthorized returns a 401 error.
func Unauthorized(message string, cause ...error) *Error {
	return newError(KindUnauthorized, message, cause)
}

// Forbidden returns a 403 error.
func Forbidden(message string, cause ...error) *Error {
	return newError(KindForbidden, message, cause)
}

// NotFound returns a 404 error.
func NotFound(message string, cause ...error) *Error {
	return newError(KindNotFound, message, cause)
}

// Conflict returns a 409 error.
func Conflict(message string, cause ...error) *Error {
	return newError(KindConflict, message, cause)
}

// Internal returns a 500 error.
func Internal(message string, cause ...error) *Error {
	return newError(KindInternal, message, cause)
}

// As reports whether err (or anything it wraps) is an *Error and returns it.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusOf maps any error to an HTTP status. Errors outside the taxonomy are 500.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}
