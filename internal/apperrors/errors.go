package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unauthorized
	Forbidden
	Conflict
	NotFound
	NotParticipating
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case NotParticipating:
		return "not_participating"
	default:
		return "internal"
	}
}

// HTTPStatus maps a Kind to the status code returned to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidInput, NotParticipating:
		return fiber.StatusBadRequest
	case Unauthorized:
		return fiber.StatusUnauthorized
	case Forbidden:
		return fiber.StatusForbidden
	case Conflict:
		return fiber.StatusConflict
	case NotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages for InvalidInput errors.
	Fields map[string]string
	Err    error
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

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind carrying err as its cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid returns an InvalidInput error with per-field messages.
func Invalid(message string, fields map[string]string) *Error {
	return &Error{Kind: InvalidInput, Message: message, Fields: fields}
}

// KindOf reports the Kind of err. Errors not produced by this package are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
