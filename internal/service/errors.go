package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

// Sentinel errors.  Every error returned by ReservationService matches
// exactly one of them through errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrSlotUnavailable      = errors.New("time slot is not available")
	ErrQuotaExceeded        = errors.New("daily reservation limit reached")
	ErrDuplicateReservation = errors.New("scenario already reserved for this day")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrSlotInUse            = errors.New("time slot is referenced by a reservation")
	ErrPersistence          = errors.New("persistence failure")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError is returned when an event is not allowed from the
// reservation's current partition.
type TransitionError struct {
	From  model.Partition
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a reservation in %s", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PersistenceError wraps a storage failure.  The whole transaction has
// been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflictError reports whether err rejects the request because of the
// current state of slots or reservations.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrDuplicateReservation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrSlotInUse)
}

// businessError marks errors that must pass through WithinTx untouched.
func businessError(err error) bool {
	return IsNotFoundError(err) || IsValidationError(err) || IsConflictError(err)
}

// persistence wraps err unless it already is a business error.
func persistence(op string, err error) error {
	if err == nil || businessError(err) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
