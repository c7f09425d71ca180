package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers match these with
// errors.Is and map them onto HTTP status codes.
var (
	// ErrNotOwned indicates the resource belongs to a different user.
	// Maps to 403.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrDocumentNotReady indicates a generation request against a
	// document that has not finished processing. Maps to 409.
	ErrDocumentNotReady = errors.New("document is not ready for generation")

	// ErrJobNotCancellable indicates a cancel request for a job that has
	// left the pending state. Maps to 409.
	ErrJobNotCancellable = errors.New("job can no longer be cancelled")
)

// ServiceError wraps an unexpected lower-layer failure with the service
// and operation it surfaced in. Sentinels pass through Unwrap so
// errors.Is keeps working on the cause.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// opError builds a ServiceError for the given service operation.
func opError(service, operation string, err error) error {
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
