package domain

import (
	"errors"
	"fmt"
)

// Domain error types for consistent error handling across the application.

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCredential is returned when no credential source yields a value
	// for a required key and no default was supplied.
	ErrMissingCredential = errors.New("missing credential")

	// ErrPoolCreation is returned when the connection pool cannot be established.
	ErrPoolCreation = errors.New("connection pool creation failed")

	// ErrPoolTimeout is returned when a lease could not be acquired in time
	// because every connection in the pool is in use. Callers may retry.
	ErrPoolTimeout = errors.New("timed out waiting for a database connection")

	// ErrPoolClosed is returned when acquiring from a pool that has been closed.
	ErrPoolClosed = errors.New("connection pool is closed")

	// ErrQuery is returned when the backend rejects a statement or a fetch fails.
	ErrQuery = errors.New("query failed")
)

// DomainError wraps a base error with additional context.
// It provides a standard way to add details to domain errors.
type DomainError struct {
	// Base is the underlying error type (e.g., ErrNotFound)
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Base.Error(), e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Base.Error(), e.Message)
	}
	return e.Base.Error()
}

// Unwrap returns the base error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Base
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: resource,
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// MissingCredentialError names the credential that could not be resolved.
type MissingCredentialError struct {
	Group string
	Key   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s/%s", ErrMissingCredential.Error(), e.Group, e.Key)
}

func (e *MissingCredentialError) Unwrap() error {
	return ErrMissingCredential
}

// PoolCreationError carries the backend address and the driver error that
// prevented the pool from coming up.
type PoolCreationError struct {
	Addr string
	Err  error
}

func (e *PoolCreationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrPoolCreation.Error(), e.Addr, e.Err)
}

// Is reports ErrPoolCreation so callers can match on the kind.
func (e *PoolCreationError) Is(target error) bool {
	return target == ErrPoolCreation
}

func (e *PoolCreationError) Unwrap() error {
	return e.Err
}

// QueryError wraps a driver failure for a single statement.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrQuery.Error(), e.Query, e.Err)
}

// Is reports ErrQuery so callers can match on the kind.
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingCredential checks if an error is a missing credential error.
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}

// IsPoolTimeout checks if an error is a retryable pool saturation error.
func IsPoolTimeout(err error) bool {
	return errors.Is(err, ErrPoolTimeout)
}

// IsPoolClosed checks if an error comes from a closed pool.
func IsPoolClosed(err error) bool {
	return errors.Is(err, ErrPoolClosed)
}

// IsQueryError checks if an error is a query failure.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}
