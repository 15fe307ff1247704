package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrHasDependents indicates a delete was blocked by dependent rows.
	ErrHasDependents = errors.New("has dependent records")
)

// ValidationError carries field-keyed validation failures. It is returned
// before any mutation takes place.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// StorageError wraps a blob read/write failure with enough context to retry.
type StorageError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s id=%s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
