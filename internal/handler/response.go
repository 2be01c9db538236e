package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "task not found with id 7"}
//
// The frontend always knows what fields to expect, regardless of whether
// it's a 400, 404, or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/taskify/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable error type (e.g. "not_found")
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending field, for validation errors
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be written before the body — once Encode calls w.Write the
// headers are already on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// ERROR MAPPING:
// The service layer returns apperror sentinels; this is the single place
// they become HTTP status codes:
//
//	ErrValidation         → 400 validation_error
//	ErrInvalidCredentials → 401 invalid_credentials
//	ErrUnauthorized       → 401 unauthorized
//	ErrNotFound           → 404 not_found
//	ErrConflict           → 409 conflict
//	anything else         → 500 internal_error (details never leave the server)
//
// errors.Is walks the whole wrap chain, so a service error like
// fmt.Errorf("creating task: %w", apperror.ValidationFailed(...)) still
// classifies correctly.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown error — the raw message might contain SQL or file paths, so
	// the client gets a generic 500.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// isClientError reports whether err is the caller's fault (4xx) rather
// than ours (5xx). Handlers use it to pick the log level.
func isClientError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrInvalidCredentials) ||
		errors.Is(err, apperror.ErrUnauthorized)
}
