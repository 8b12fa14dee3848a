// Package store declares the persistence contract of the booking engine
// and ships an in-memory implementation.  The MySQL implementation lives
// in package repository.
//
// Every lifecycle transition runs inside WithinTx: either all of its
// writes become visible or none do.  Methods on Tx that read a row the
// transition is about to change lock that row for the rest of the
// transaction.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrSlotInUse is returned when deleting a slot that a reservation
	// outside the deleted partition still points at.
	ErrSlotInUse = errors.New("store: time slot referenced by a reservation")
)

// Store is the entry point used by the service layer.
type Store interface {
	// WithinTx runs fn in a single transaction and commits when fn
	// returns nil.  Implementations may run fn more than once when the
	// backend aborts the transaction for a retryable reason, so fn must
	// not have side effects outside tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListReservations(ctx context.Context) ([]model.ReservationDetail, error)
	GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error)
	ListChapterSlots(ctx context.Context, chapterID string, from, to time.Time) ([]model.TimeSlot, error)
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	Catalog
	TimeSlots
	Reservations
}

// Catalog reads scenarios and chapters.  Catalog writes are managed
// elsewhere.
type Catalog interface {
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)
	GetChapter(ctx context.Context, id string) (*model.Chapter, error)
	// SiblingChapterIDs returns the ids of the other chapters of the
	// scenario, excluding chapterID.
	SiblingChapterIDs(ctx context.Context, scenarioID, chapterID string) ([]string, error)
}

// TimeSlots is the time slot store.
type TimeSlots interface {
	GetTimeSlot(ctx context.Context, id string) (*model.TimeSlot, error)
	// ListOverlapping returns slots of the given chapters that intersect
	// (start, end).
	ListOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) ([]model.TimeSlot, error)
	// SetStatus writes status and blockedBy unconditionally.
	SetStatus(ctx context.Context, id string, status model.SlotStatus, blockedBy *string) error
	// CompareAndSetStatus moves the slot to `to` only when its current
	// status is one of from, clearing blocked_by.  It reports whether the
	// row changed.
	CompareAndSetStatus(ctx context.Context, id string, from []model.SlotStatus, to model.SlotStatus) (bool, error)
	// BlockOverlapping marks every available slot of chapterIDs that
	// intersects (start, end) as blocked by owner and returns the ids of
	// the slots it changed.
	BlockOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time, owner string) ([]string, error)
	// ReleaseBlockedBy makes every slot blocked by owner available again
	// and returns the released slots with their new state.
	ReleaseBlockedBy(ctx context.Context, owner string) ([]model.TimeSlot, error)
	// DeleteTimeSlot removes a slot unless a non-deleted reservation
	// references it.
	DeleteTimeSlot(ctx context.Context, id string) error
}

// Reservations is the reservation record set.  The partition of a
// reservation is its Status column.
type Reservations interface {
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	// MoveReservation changes the partition from `from` to `to` and
	// reports false when the reservation was not in `from`.
	MoveReservation(ctx context.Context, id string, from, to model.Partition) (bool, error)
	// ActiveForIdentity returns pending and approved reservations whose
	// email and phone both match and whose slot starts in [from, to).
	ActiveForIdentity(ctx context.Context, email, phone string, from, to time.Time) ([]model.Reservation, error)
	// OldestActiveOverlapping returns the id of the earliest created
	// active reservation whose slot belongs to one of chapterIDs and
	// intersects (start, end).
	OldestActiveOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) (string, bool, error)
}

// Notifications persists dashboard notification records.
type Notifications interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// StaffDirectory lists the addresses of staff members who receive
// reservation emails.
type StaffDirectory interface {
	StaffEmails(ctx context.Context) ([]string, error)
}
