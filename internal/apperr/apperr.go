package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDependency
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDependency:
		return "DEPENDENCY_ERROR"
	case KindUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status maps the kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type every service returns to the HTTP layer.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	cause   error
	public  bool
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Status() int { return e.Kind.Status() }

// Opaque reports whether the message must be hidden from callers.
func (e *Error) Opaque() bool {
	if e.public {
		return false
	}
	return e.Kind == KindInternal || e.Kind == KindDependency
}

// Public marks a dependency error whose message and details are safe to return.
func (e *Error) Public() *Error {
	c := *e
	c.public = true
	return &c
}

func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

func (e *Error) WithCode(code string) *Error {
	c := *e
	c.Code = code
	return &c
}

func newError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Code: kind.String(), Message: msg, cause: cause}
}

func Validation(msg string, details any) *Error {
	e := newError(KindValidation, nil, msg)
	e.Details = details
	return e
}

func Unauthenticated(msg string) *Error {
	return newError(KindUnauthenticated, nil, msg)
}

func Forbidden(msg string) *Error {
	return newError(KindForbidden, nil, msg)
}

func NotFound(msg string) *Error {
	return newError(KindNotFound, nil, msg)
}

func Dependency(cause error, msg string) *Error {
	return newError(KindDependency, cause, msg)
}

func Unavailable(msg string, details any) *Error {
	e := newError(KindUnavailable, nil, msg)
	e.Details = details
	return e
}

func Internal(cause error, msg string) *Error {
	return newError(KindInternal, cause, msg)
}

// Wrap attaches kind and message to a sentinel so errors.Is keeps matching it.
func Wrap(kind Kind, cause error, code string) *Error {
	e := newError(kind, cause, cause.Error())
	if code != "" {
		e.Code = code
	}
	return e
}

// As returns err as *Error, wrapping unknown errors as Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err, "internal error")
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
