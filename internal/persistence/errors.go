package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConflict is returned when a conditional update finds the record in
	// a different state than required, e.g. a date lock race lost.
	ErrConflict = errors.New("persistence: conflicting state")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for check constraint failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
