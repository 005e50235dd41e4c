package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthorization  ErrorType = "AUTHORIZATION"
	ErrValidation     ErrorType = "VALIDATION"
	ErrState          ErrorType = "STATE"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrDependency     ErrorType = "DEPENDENCY_FAILURE"
	ErrAuthFailed     ErrorType = "AUTH_FAILED"
	ErrRateLimited    ErrorType = "RATE_LIMITED"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrReadOnly       ErrorType = "READ_ONLY"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewAuthorization(msg string) *AppError {
	return New(ErrAuthorization, msg, nil)
}

func NewValidation(format string, args ...any) *AppError {
	return New(ErrValidation, fmt.Sprintf(format, args...), nil)
}

func NewState(format string, args ...any) *AppError {
	return New(ErrState, fmt.Sprintf(format, args...), nil)
}

// NewNotFound is a StateError raised when a record the operation requires is
// absent. It renders as 404 at the transport edge.
func NewNotFound(format string, args ...any) *AppError {
	return New(ErrNotFound, fmt.Sprintf(format, args...), nil)
}

func NewDependency(msg string, cause error) *AppError {
	return New(ErrDependency, msg, cause)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err carries an AppError of the given type. NOT_FOUND
// counts as a STATE error.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Type == t {
		return true
	}
	return t == ErrState && appErr.Type == ErrNotFound
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrAuthorization:
		return http.StatusForbidden
	case ErrState:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrDependency:
		return http.StatusPaymentRequired
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrReadOnly:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrAuthorization:
		return "Sign the request with the configured authority."
	case ErrAuthFailed:
		return "Check the X-Api-Key header."
	case ErrDependency:
		return "Check the payer token account balance and mint."
	case ErrRateLimited:
		return "Retry after a short delay."
	case ErrReadOnly:
		return "The ledger is in maintenance; retry the write later."
	default:
		return ""
	}
}
