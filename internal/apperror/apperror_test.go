package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("failed to create user: %w", &ConflictError{Field: "username"})

	if !errors.Is(err, ErrConflict) {
		t.Fatal("expected wrapped ConflictError to match ErrConflict")
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatal("expected errors.As to find ConflictError")
	}
	if conflict.Field != "username" {
		t.Errorf("field = %q, want %q", conflict.Field, "username")
	}
	if got := conflict.Error(); got != "username already in use" {
		t.Errorf("message = %q", got)
	}
}

func TestValidationError(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Fatal("empty validation error should collapse to nil")
	}

	v.Add("amount", "must not be negative")
	v.Add("payer_id", "required")

	err := v.OrNil()
	if err == nil {
		t.Fatal("expected non-nil error")
	}
	if !IsValidation(fmt.Errorf("wrap: %w", err)) {
		t.Error("expected IsValidation to see through wrapping")
	}
	want := "validation failed: amount: must not be negative; payer_id: required"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}
