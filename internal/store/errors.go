// Package store provides abstractions for data persistence.
package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Entity-specific variants below wrap it so callers can match either.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specifics.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConcurrentUpdate is returned when an optimistic-concurrency
	// write loses its compare-and-swap race. Callers retry transparently.
	ErrConcurrentUpdate = errors.New("concurrent update conflict")

	// ErrTransactionFailed is returned when a transaction fails to commit
	// or an operation within one fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("%w: document", ErrNotFound)
	ErrDeckNotFound     = fmt.Errorf("%w: deck", ErrNotFound)
	ErrCardNotFound     = fmt.Errorf("%w: card", ErrNotFound)
	ErrScheduleNotFound = fmt.Errorf("%w: card schedule", ErrNotFound)
	ErrJobNotFound      = fmt.Errorf("%w: generation job", ErrNotFound)
	ErrQuizNotFound     = fmt.Errorf("%w: quiz", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)
	ErrAttemptNotFound  = fmt.Errorf("%w: quiz attempt", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrAnswerExists indicates an answer was already recorded for the
	// (attempt, question) pair.
	ErrAnswerExists = fmt.Errorf("%w: answer", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError carries entity and operation context for a failed store
// call while preserving the wrapped error for errors.Is/As.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given context.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
