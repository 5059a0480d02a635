package service

import (
	"context"
	"errors"
	"fmt"

	"tailor-backend/internal/repository"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTimeout      = errors.New("request timeout")
)

// Error carries a short client-facing message together with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFoundError(entity string) error {
	return &Error{Kind: ErrNotFound, Msg: entity + " not found"}
}

func conflictError(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func unauthorizedError(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

// lookupError converts a repository lookup failure: missing rows become NotFound,
// deadlines become ErrTimeout, anything else is wrapped as an internal failure.
func lookupError(err error, entity string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundError(entity)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("failed to load %s: %w", entity, err)
	}
}

// writeError wraps a failed write, turning unique violations into Conflict.
func writeError(err error, action string) error {
	switch {
	case repository.IsDuplicateKey(err):
		return conflictError("%s: record already exists", action)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
