package model

import "time"

// Notification is the dashboard record written when a reservation is
// created.
type Notification struct {
	ID            string    `json:"id"`             // notifications.id
	ReservationID string    `json:"reservation_id"` // notifications.reservation_id
	Message       string    `json:"message"`        // notifications.message
	IsRead        bool      `json:"is_read"`        // notifications.is_read
	CreatedAt     time.Time `json:"created_at"`     // notifications.created_at
}

// ReservationEvent is what the lifecycle hands to the notification
// collaborator after a transition commits.  Times are UTC; formatting in
// venue time happens downstream.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Language      string    `json:"language"`
	People        int       `json:"people"`
	ScenarioName  string    `json:"scenario_name"`
	ChapterName   string    `json:"chapter_name"`
	SlotStart     time.Time `json:"slot_start"`
	SlotEnd       time.Time `json:"slot_end"`
	Status        Partition `json:"status"`

	// PreviousStatus is set on status changes.
	PreviousStatus Partition `json:"previous_status,omitempty"`
}
