// Package apperror defines the error taxonomy shared by storage, the domain
// components and the RPC layer.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested group, pool, invitation or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for credential mismatches. The message never
	// says which half of the credential was wrong.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is the sentinel every ConflictError unwraps to.
	ErrConflict = errors.New("conflict")
)

// ConflictError reports a uniqueness violation on a named field.
type ConflictError struct {
	Field string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "conflict"
	}
	return fmt.Sprintf("%s already in use", e.Field)
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// NewValidation returns a ValidationError holding a single field message.
func NewValidation(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + v.FieldErrors[field]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// OrNil returns v when it holds errors and nil otherwise, so callers can
// return it directly as an error value.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
