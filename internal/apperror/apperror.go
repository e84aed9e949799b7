// Package apperror defines the domain error taxonomy shared by the service,
// repository and handler layers.
//
// Every domain failure is an *AppError wrapping one of the sentinel errors
// below. Callers test the kind with errors.Is and read the human-readable
// message with errors.As. Only the handler layer knows about HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrAlreadyExists       = errors.New("already exists")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingEmail        = errors.New("missing email")
	ErrPreferencesRequired = errors.New("preferences required")
	ErrUpstreamEmpty       = errors.New("upstream returned no articles")
	ErrUpstream            = errors.New("upstream failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, id),
	}
}

// AlreadyExists reports a duplicate entry in a per-user collection.
func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: message,
	}
}

// Unauthorized is returned for missing, malformed or expired session tokens.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

// MissingEmail is returned when an identity provider profile carries no email.
func MissingEmail(provider string) *AppError {
	return &AppError{
		Err:     ErrMissingEmail,
		Message: fmt.Sprintf("no email provided by %s", provider),
	}
}

func PreferencesRequired() *AppError {
	return &AppError{
		Err:     ErrPreferencesRequired,
		Message: "no preferences set",
	}
}

// UpstreamEmpty means the news provider answered successfully with zero articles.
func UpstreamEmpty(message string) *AppError {
	return &AppError{
		Err:     ErrUpstreamEmpty,
		Message: message,
	}
}

// Upstream wraps a transport or protocol failure talking to the news provider.
// The cause stays in the chain for logging; Message is what clients see.
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, cause),
		Message: message,
	}
}
