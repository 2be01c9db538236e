// Package apperror defines the application's error taxonomy.
//
// Every rejected operation maps to exactly one of the sentinel errors
// below, so callers (and the HTTP layer) can classify failures with
// errors.Is without parsing message strings. The AppError wrapper adds a
// human-readable message and, for validation failures, the offending field.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both "the record does not exist" and "the record
	// belongs to another user". The two cases share one error on purpose:
	// a caller must not be able to probe for other users' records.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was malformed and the caller can fix it.
	ErrValidation = errors.New("validation error")

	// ErrConflict means a uniqueness rule was violated (duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned for every failed login. It is
	// deliberately vague: unknown email and wrong password produce the
	// identical error so account existence cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized means the request carried no usable identity
	// (missing, malformed, tampered, or expired token).
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel category (ErrNotFound, ErrValidation, ...)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// InvalidCredentials returns the single fixed error used for every failed
// login attempt regardless of cause.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid email or password",
	}
}

// Unauthorized returns an AppError indicating the caller has no valid
// identity. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
