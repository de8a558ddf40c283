package service

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFound = errors.New("not found")

// ValidationError maps field names to human-readable messages. Nothing was
// written when it is returned.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	n := 0
	for k, msgs := range e.Fields {
		keys = append(keys, k)
		n += len(msgs)
	}
	if n == 0 {
		return "validation failed"
	}
	sort.Strings(keys)
	first := e.Fields[keys[0]][0]
	if n == 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more errors)", first, n-1)
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// orNil returns e as an error only when it holds at least one message.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// NewValidationError returns a ValidationError holding a single message.
func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.add(field, msg)
	return e
}
