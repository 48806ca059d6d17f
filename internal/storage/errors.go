package storage

import (
	"errors"
	"fmt"
)

var errNoTestCases = errors.New("no test cases to save")

// ConfigError reports a backend that cannot be constructed from the
// resolved configuration. It is returned before any I/O is attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "storage config: " + e.Reason }

// NotFoundError reports a load for an identifier with no stored record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("no results found for ID: %s", e.ID) }

// PersistenceError reports a medium-level failure: disk I/O,
// serialization, or remote transport. Op names the failed operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
