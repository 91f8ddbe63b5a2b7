package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicateName = fmt.Errorf("duplicate name")
	ErrInvalidInput  = fmt.Errorf("invalid input")

	// ErrInvalidValue is returned when a value type is constructed in
	// violation of its own invariant.
	ErrInvalidValue = fmt.Errorf("invalid value")
	// ErrValidationFailed is matched by every validation error carrying
	// field-scoped messages.
	ErrValidationFailed = fmt.Errorf("validation failed")

	ErrQuery   = fmt.Errorf("query error")
	ErrStaging = fmt.Errorf("staging error")

	ErrPersistenceConflict = fmt.Errorf("persistence conflict")
	ErrPersistence         = fmt.Errorf("persistence error")
)

// Operation names the repository operation a storage error occurred in.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpCommit Operation = "commit"
)

// PersistenceError carries the context of a failed storage call.
// Kind is one of ErrQuery, ErrPersistenceConflict or ErrPersistence.
type PersistenceError struct {
	Op     Operation
	Entity string
	Kind   error
	Err    error
}

func (p *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", p.Op, p.Entity, p.Kind, p.Err)
}

func (p *PersistenceError) Unwrap() []error {
	return []error{p.Kind, p.Err}
}

// IsConflict reports whether err is a constraint violation raised by the store.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPersistenceConflict)
}
