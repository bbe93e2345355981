/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("todos", 10)

	expected := `todos with id "10" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestConflictError(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		expected string
	}{
		{
			name:     "with reason",
			reason:   "identifier repeated in batch",
			expected: `todos with id "abc" conflicts: identifier repeated in batch`,
		},
		{
			name:     "without reason",
			expected: `todos with id "abc" conflicts`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConflictError("todos", "abc", tt.reason)
			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			if !IsConflict(err) {
				t.Error("IsConflict should return true for ConflictError")
			}
			if IsNotFound(err) {
				t.Error("ConflictError should not match ErrNotFound")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "id",
			message:  "must be an integer",
			expected: `validation failed for field "id": must be an integer`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "no items given",
			expected: "validation failed: no items given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestUnknownFieldError(t *testing.T) {
	err := NewUnknownFieldError("todos", "colour")

	expected := `todos has no field "colour"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsUnknownField(err) {
		t.Error("IsUnknownField should return true for UnknownFieldError")
	}
	if !IsValidationError(err) {
		t.Error("UnknownFieldError should also be a validation error")
	}
}

func TestNotSupportedError(t *testing.T) {
	err := NewNotSupportedError("partiql", "count")

	if err.Error() != "partiql does not support count" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsNotSupported(err) {
		t.Error("IsNotSupported should return true for NotSupportedError")
	}
}

func TestWrappedErrors(t *testing.T) {
	baseErr := NewNotFoundError("todos", 42)
	wrappedErr := fmt.Errorf("retrieve failed: %w", baseErr)

	if !IsNotFound(wrappedErr) {
		t.Error("IsNotFound should work with wrapped errors")
	}

	var nfe *NotFoundError
	if !errors.As(wrappedErr, &nfe) {
		t.Fatal("errors.As should find the NotFoundError")
	}
	if nfe.Resource != "todos" || nfe.ID != "42" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
}
