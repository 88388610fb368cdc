package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist,
	// including unknown or already-claimed bearer tokens.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicateDate is returned when publishing a date that already has
	// an active record for the same calendar day.
	ErrDuplicateDate = errors.New("application: date already published")
	// ErrDateUnavailable is returned when a lock attempt finds the date
	// already locked, soft-deleted, or raced away by a concurrent caller.
	ErrDateUnavailable = errors.New("application: date unavailable")
	// ErrDateLocked is returned when soft-deleting a date a speaker holds.
	ErrDateLocked = errors.New("application: date is locked by a speaker")
	// ErrLockedMeeting is returned when removing an immutable agenda meeting.
	ErrLockedMeeting = errors.New("application: meeting is locked")
	// ErrInvalidTimeRange is returned for meetings whose end does not follow
	// their start or whose date falls outside the visit window.
	ErrInvalidTimeRange = errors.New("application: invalid meeting time range")
	// ErrIndexOutOfRange is returned for out-of-range action or meeting indexes.
	ErrIndexOutOfRange = errors.New("application: index out of range")
	// ErrInvalidCredentials is returned for failed authentication attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token has passed its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrAlreadyExists is returned when creating a record that already exists.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// TransitionError reports a lifecycle operation attempted from the wrong
// state, with enough context for the caller to reconcile.
type TransitionError struct {
	SpeakerID string
	From      SpeakerStatus
	Attempted string
}

// Error implements the error interface.
func (t *TransitionError) Error() string {
	return fmt.Sprintf("speaker %s: cannot %s while %s", t.SpeakerID, t.Attempted, t.From)
}

// ReconcileError wraps a saga failure whose earlier steps already took
// visible effect. Callers should surface it as a degraded success and
// re-query current state rather than retry blindly.
type ReconcileError struct {
	Step   string
	Detail string
	Err    error
}

// Error implements the error interface.
func (r *ReconcileError) Error() string {
	return fmt.Sprintf("partial failure at %s (%s): %v", r.Step, r.Detail, r.Err)
}

// Unwrap exposes the underlying cause.
func (r *ReconcileError) Unwrap() error {
	return r.Err
}
