package controller

import (
	"errors"
	"fmt"
)

// ErrPersistence is matched by every failure to read or write through the executor.
var ErrPersistence = errors.New("controller: persistence failure")

var errNoRowsAffected = errors.New("no rows affected")

// PersistenceError records which operation failed and why.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("controller: %s: %v", e.Op, e.Err)
}

// Is reports ErrPersistence as a match so callers need not know the concrete type.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// MappingError reports a result value that could not be converted to its record field.
type MappingError struct {
	Row    int
	Column string
	Err    error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("controller: row %d column %q: %v", e.Row, e.Column, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
