package handler

// RESPONSE HELPERS:
// Every JSON endpoint answers through writeJSON, and every failure through
// writeError, so the frontend always sees the same error shape:
//
//	{"error": "not_found", "message": "report not found: abc123"}
//
// Handlers never pick status codes for domain errors themselves; the mapping
// lives in writeError alone.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/service"
)

// maxBodyBytes bounds JSON bodies. It sits above the largest accepted field
// (100 000 bytes of code) plus the rest of a report.
const maxBodyBytes = 256 << 10

// maxFormBytes bounds form bodies. Percent-encoding turns every byte of
// non-ASCII text into three, so the ceiling covers code and stdin at their
// accepted maximum encoded that way.
const maxFormBytes = 3*(service.MaxCodeLength+service.MaxStdinLength) + 4<<10

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "not_found"
	Message string `json:"message"`         // safe to show to the student
	Field   string `json:"field,omitempty"` // input at fault, for validation errors
}

// writeJSON sets the header, then the status, then the body. Headers written
// after the first body byte are ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The status is already on the wire; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto an HTTP status.
//
// errors.Is walks the wrap chain, so a service returning
// fmt.Errorf("running code: %w", apperror.Unavailable(...)) still maps to 503.
// Anything that is not an *apperror.AppError becomes an opaque 500: raw
// messages may carry SQL, file paths or docker details.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, errorType := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnavailable):
		status, errorType = http.StatusServiceUnavailable, "unavailable"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a bounded JSON body into dst. Malformed or oversized
// bodies come back as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return tooLarge
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}

// parseForm is the form counterpart of decodeJSON.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return tooLarge
		}
		return apperror.ValidationFailed("body", "invalid form body")
	}
	return nil
}

// bodyTooLarge maps a tripped MaxBytesReader to a validation error, or
// returns nil for any other read failure.
func bodyTooLarge(err error) error {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return nil
	}
	return apperror.ValidationFailed("body",
		fmt.Sprintf("request body must be %d bytes or less", tooLarge.Limit))
}
