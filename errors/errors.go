/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when an identifier collides with another one
	ErrConflict = errors.New("conflicting identifier")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownField is returned when an item or selector names an undeclared field
	ErrUnknownField = errors.New("unknown field")

	// ErrNotSupported is returned when a backend cannot express an operation
	ErrNotSupported = errors.New("operation not supported")

	// ErrNoDefinition is returned when no definition is registered for a resource
	ErrNoDefinition = errors.New("no definition found for resource")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError represents an identifier collision
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s with id %q conflicts: %s", e.Resource, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s with id %q conflicts", e.Resource, e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UnknownFieldError is a validation error naming a field missing from the resource schema.
// It matches both ErrUnknownField and ErrInvalidInput.
type UnknownFieldError struct {
	Resource string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s has no field %q", e.Resource, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField || target == ErrInvalidInput
}

// NotSupportedError is returned when a backend has no way to run or express an operation
type NotSupportedError struct {
	Backend   string
	Operation string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Backend, e.Operation)
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource string, id any, reason string) error {
	return &ConflictError{Resource: resource, ID: fmt.Sprint(id), Reason: reason}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewUnknownFieldError creates a new UnknownFieldError
func NewUnknownFieldError(resource, field string) error {
	return &UnknownFieldError{Resource: resource, Field: field}
}

// NewNotSupportedError creates a new NotSupportedError
func NewNotSupportedError(backend, operation string) error {
	return &NotSupportedError{Backend: backend, Operation: operation}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflicting identifier error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnknownField checks if an error is an unknown field error
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

// IsNotSupported checks if an error is a not supported error
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}
