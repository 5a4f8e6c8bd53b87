package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTimestampFormat is returned when a timestamp field is not in TimeLayout.
	ErrTimestampFormat = errors.New("timestamp not in expected format")
	// ErrTimestampOrder is returned when updated_at precedes created_at.
	ErrTimestampOrder = errors.New("updated_at precedes created_at")
	// ErrUnknownKind is returned when a class tag names no registered kind.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrInvalidRecord is returned when a record lacks the identity a Factory
	// assigns.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrNotFound is matched by NotFoundError via errors.Is.
	ErrNotFound = errors.New("record not found")
)

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError wraps a construction failure for a named field.
type FieldError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Kind, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
