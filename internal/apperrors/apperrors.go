package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure a core operation can return. Nothing in
// the core is fatal to the process; each failure is scoped to the one
// requested operation and rendered by the HTTP layer.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindExternal      Kind = "external_dependency"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authorization errors carry a generic message on purpose; they must
// not leak whether the target booking exists.
func Authorization() *Error {
	return &Error{Kind: KindAuthorization, Message: "not authorized to perform this action"}
}

func StateConflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the classification from any error in the chain.
// Unclassified errors are treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the response code the boundary
// should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindStateConflict:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code for the JSON envelope.
func Code(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthorization:
		return "FORBIDDEN"
	case KindStateConflict:
		return "STATE_CONFLICT"
	case KindExternal:
		return "EXTERNAL_DEPENDENCY_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
