package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeInvalidBoxCount   = "INVALID_BOX_COUNT"
	ErrCodeIndexOutOfRange   = "INDEX_OUT_OF_RANGE"
	ErrCodeAutoSearchRunning = "AUTO_SEARCH_RUNNING"
	ErrCodeDoubleFinalize    = "DOUBLE_FINALIZE"
	ErrCodeUnavailable       = "UNAVAILABLE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_BOX_COUNT")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewInvalidBoxCountError is shown to the user next to the box count input.
func NewInvalidBoxCountError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidBoxCount,
		Message: "box count must be a positive whole number",
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// NewIndexOutOfRangeError reports a reveal of a box that is not on the board.
func NewIndexOutOfRangeError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeIndexOutOfRange,
		Message: "box index is not on the board",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// NewAutoSearchRunningError rejects a second concurrent auto-search.
func NewAutoSearchRunningError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeAutoSearchRunning,
		Message: "an auto-search is already running",
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// NewDoubleFinalizeError reports an attempt to count one round twice.
func NewDoubleFinalizeError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeDoubleFinalize,
		Message: "round already counted",
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// NewUnavailableError is returned when background capacity is exhausted.
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}
