package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "Bookmark not found."}
//
// The frontend always knows what fields to expect, whether it's a 400, 404 or 500.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/newsroom/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Nothing in this API legitimately
// sends more than a few kilobytes.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once Encode
// writes, any header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent: we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping is one row of the domain error → HTTP table.
type errorMapping struct {
	target    error
	status    int
	errorType string
}

// errorTable is checked in order; the first errors.Is match wins.
var errorTable = []errorMapping{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrConflict, http.StatusBadRequest, "conflict"},
	{apperror.ErrAlreadyExists, http.StatusBadRequest, "already_exists"},
	{apperror.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{apperror.ErrMissingEmail, http.StatusBadRequest, "missing_email"},
	{apperror.ErrPreferencesRequired, http.StatusBadRequest, "preferences_required"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrUpstreamEmpty, http.StatusNotFound, "no_results"},
	{apperror.ErrUpstream, http.StatusInternalServerError, "upstream_error"},
}

// StatusFor returns the HTTP status and error type for err.
// Unknown errors map to 500 "internal_error".
func StatusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.errorType
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.Is() walks the whole chain (via Unwrap()), so a service error like
//
//	fmt.Errorf("service/bookmark: creating: %w", apperror.AlreadyExists(...))
//
// still matches ErrAlreadyExists here.
//
// NEVER expose internal error details: for errors that are not an
// *apperror.AppError the message is generic and the real error is logged.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, errorType := StatusFor(err)

	message := "An internal error occurred"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("error_type", errorType),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

// decodeJSON reads a JSON request body into dst. Malformed or oversized
// bodies come back as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// HandleNotFound and HandleMethodNotAllowed keep chi's fallbacks on the same
// JSON error shape as everything else.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "route not found"})
}

func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method_not_allowed", Message: "method not allowed"})
}
