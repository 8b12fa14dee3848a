package model

import "time"

// SlotStatus is the lifecycle state of a bookable time slot.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotPending     SlotStatus = "pending"
	SlotBooked      SlotStatus = "booked"
	SlotBlocked     SlotStatus = "blocked"
	SlotUnavailable SlotStatus = "unavailable"
)

// Valid reports whether s is one of the known slot states.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotPending, SlotBooked, SlotBlocked, SlotUnavailable:
		return true
	}
	return false
}

// TimeSlot is a bookable interval of a chapter.  Slots of sibling
// chapters share the same physical room, so an overlapping slot in
// another chapter of the same scenario is blocked while this one is
// held.
//
// Fields:
//
//	ID          – primary key identifier.
//	ChapterID   – chapter the slot belongs to.
//	StartTime   – start of the interval (UTC).
//	EndTime     – end of the interval (UTC), after StartTime.
//	Status      – current SlotStatus.
//	IsAvailable – mirror of Status == available, kept for readers
//	              that only look at the flag.
//	BlockedBy   – reservation that caused the block; set iff Status
//	              is blocked.
//	UpdatedAt   – last update timestamp.
type TimeSlot struct {
	ID          string     `json:"id"`           // time_slots.id
	ChapterID   string     `json:"chapter_id"`   // time_slots.chapter_id
	StartTime   time.Time  `json:"start_time"`   // time_slots.start_time
	EndTime     time.Time  `json:"end_time"`     // time_slots.end_time
	Status      SlotStatus `json:"status"`       // time_slots.status
	IsAvailable bool       `json:"is_available"` // time_slots.is_available
	BlockedBy   *string    `json:"blocked_by"`   // time_slots.blocked_by (nullable)
	UpdatedAt   time.Time  `json:"updated_at"`   // time_slots.updated_at
}

// Overlaps reports whether the slot intersects the open interval
// (start, end).  Touching endpoints do not overlap.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}
