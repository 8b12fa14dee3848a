package model

import "time"

// Partition is the lifecycle bucket a reservation lives in.  A
// reservation is in exactly one partition at any time.
type Partition string

const (
	PartitionPending  Partition = "pending"
	PartitionApproved Partition = "approved"
	PartitionDeclined Partition = "declined"
	PartitionDeleted  Partition = "deleted"
)

// Partitions lists every partition in display order.
var Partitions = []Partition{PartitionPending, PartitionApproved, PartitionDeclined, PartitionDeleted}

// Active reports whether reservations in p still hold their slot and
// count toward the daily quota.
func (p Partition) Active() bool {
	return p == PartitionPending || p == PartitionApproved
}

// partitionAliases maps the collection names used by older dashboard
// clients onto partitions.
var partitionAliases = map[string]Partition{
	"pending":              PartitionPending,
	"approved":             PartitionApproved,
	"declined":             PartitionDeclined,
	"deleted":              PartitionDeleted,
	"reservations":         PartitionPending,
	"approvedReservations": PartitionApproved,
	"declinedReservations": PartitionDeclined,
	"deletedReservations":  PartitionDeleted,
}

// ParsePartition resolves a partition name or one of its legacy
// collection aliases.
func ParsePartition(s string) (Partition, bool) {
	p, ok := partitionAliases[s]
	return p, ok
}

// Reservation is a customer's request for one time slot of a chapter.
//
// Fields:
//
//	ID         – primary key identifier, stable across partition moves.
//	ScenarioID – scenario (game) being booked.
//	ChapterID  – chapter (session) of the scenario.
//	TimeSlotID – slot held by the reservation.
//	Name       – customer name.
//	Email      – customer email; with Phone forms the quota identity.
//	Phone      – customer phone.
//	Language   – preferred language for the session.
//	People     – party size, always positive.
//	Status     – partition the reservation currently lives in.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
//	DeletedAt  – set when the reservation enters the deleted partition.
type Reservation struct {
	ID         string     `json:"id"`          // reservations.id
	ScenarioID string     `json:"scenario_id"` // reservations.scenario_id
	ChapterID  string     `json:"chapter_id"`  // reservations.chapter_id
	TimeSlotID string     `json:"time_slot_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Language   string     `json:"language"`
	People     int        `json:"people"`
	Status     Partition  `json:"status"` // reservations.status
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// ReservationDetail is a reservation joined with the names and times a
// staff dashboard needs.
type ReservationDetail struct {
	Reservation
	ScenarioName string    `json:"scenario_name"`
	ChapterName  string    `json:"chapter_name"`
	SlotStart    time.Time `json:"slot_start"`
	SlotEnd      time.Time `json:"slot_end"`
}

// ReservationsByPartition groups reservation details by partition.
type ReservationsByPartition struct {
	Pending  []ReservationDetail `json:"pending"`
	Approved []ReservationDetail `json:"approved"`
	Declined []ReservationDetail `json:"declined"`
	Deleted  []ReservationDetail `json:"deleted"`
}

// Add appends d to the bucket matching its status.
func (g *ReservationsByPartition) Add(d ReservationDetail) {
	switch d.Status {
	case PartitionPending:
		g.Pending = append(g.Pending, d)
	case PartitionApproved:
		g.Approved = append(g.Approved, d)
	case PartitionDeclined:
		g.Declined = append(g.Declined, d)
	case PartitionDeleted:
		g.Deleted = append(g.Deleted, d)
	}
}
