package service

import (
	"context"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

// Notifier receives reservation events after the transition that
// produced them has committed.  Errors are logged by the caller and
// never undo the transition.
type Notifier interface {
	ReservationCreated(ctx context.Context, ev model.ReservationEvent) error
	ReservationStatusChanged(ctx context.Context, ev model.ReservationEvent) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) ReservationCreated(context.Context, model.ReservationEvent) error { return nil }

func (NopNotifier) ReservationStatusChanged(context.Context, model.ReservationEvent) error {
	return nil
}

func newEvent(r *model.Reservation, slot *model.TimeSlot, scenarioName, chapterName string) model.ReservationEvent {
	return model.ReservationEvent{
		ReservationID: r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Language:      r.Language,
		People:        r.People,
		ScenarioName:  scenarioName,
		ChapterName:   chapterName,
		SlotStart:     slot.StartTime,
		SlotEnd:       slot.EndTime,
		Status:        r.Status,
	}
}
