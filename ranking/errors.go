// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"errors"
	"fmt"
)

// ValidationError describes why a submission was rejected.
// It can carry several failures for the same entity.
type ValidationError struct {
	// Entity is the kind of submission that failed ("ranking", "allocation", ...).
	Entity string

	// Errors contains the individual failure messages.
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("invalid %s: %v", e.Entity, e.Errors)
}

// AddError appends a formatted failure message.
func (e *ValidationError) AddError(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any failure was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates an empty ValidationError for entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
