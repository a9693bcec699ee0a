package domain

import (
	"errors"
	"fmt"
)

// Sentinel domain errors. Handlers map these onto HTTP status codes.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput indicates a malformed or rejected request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates an illegal state transition.
	ErrConflict = errors.New("resource conflict")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("forbidden")
	// ErrInternal wraps unexpected failures.
	ErrInternal = errors.New("internal error")
)

// DomainError carries a machine-readable code and a user-safe message.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface, including wrapped detail for logs.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage returns the message safe to expose to API clients.
func (e *DomainError) UserMessage() string {
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError builds a NOT_FOUND error for a named resource.
func NewNotFoundError(resourceType, id string) error {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s '%s' not found", resourceType, id),
		Err:     ErrNotFound,
	}
}

// WrapNotFoundError marks a storage-level miss as NOT_FOUND when the caller
// has no id to name, keeping the cause for logs.
func WrapNotFoundError(resourceType string, err error) error {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resourceType),
		Err:     fmt.Errorf("%w: %v", ErrNotFound, err),
	}
}

// WrapAlreadyExistsError marks a storage uniqueness violation as
// ALREADY_EXISTS, keeping the cause for logs.
func WrapAlreadyExistsError(resourceType string, err error) error {
	return &DomainError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s already exists", resourceType),
		Err:     fmt.Errorf("%w: %v", ErrAlreadyExists, err),
	}
}

// NewAlreadyExistsError builds an ALREADY_EXISTS error for a named resource.
func NewAlreadyExistsError(resourceType, id string) error {
	return &DomainError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s '%s' already exists", resourceType, id),
		Err:     ErrAlreadyExists,
	}
}

// NewInvalidInputError builds an INVALID_INPUT error with a custom message.
func NewInvalidInputError(message string) error {
	return &DomainError{
		Code:    "INVALID_INPUT",
		Message: message,
		Err:     ErrInvalidInput,
	}
}

// NewConflictError builds a CONFLICT error, used for status-transition violations.
func NewConflictError(message string) error {
	return &DomainError{
		Code:    "CONFLICT",
		Message: message,
		Err:     ErrConflict,
	}
}

// NewForbiddenError builds a FORBIDDEN error with a custom message.
func NewForbiddenError(message string) error {
	return &DomainError{
		Code:    "FORBIDDEN",
		Message: message,
		Err:     ErrForbidden,
	}
}

// NewInternalError wraps an unexpected failure without leaking detail to clients.
func NewInternalError(err error) error {
	return &DomainError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Err:     fmt.Errorf("%w: %v", ErrInternal, err),
	}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is a uniqueness violation.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalidInput reports whether err is an input validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict reports whether err is a state-transition conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden reports whether err is a permission error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInternalError reports whether err is an internal error.
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}
