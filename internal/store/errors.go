package store

import "errors"

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a unique
// constraint.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a row references a parent that
// does not exist.
var ErrInvalidReference = errors.New("invalid reference")
