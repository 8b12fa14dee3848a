package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// TimeSlotService exposes slot reads for the public calendar and the
// guarded slot delete used by staff.
type TimeSlotService struct {
	store store.Store
	quota *QuotaGuard
}

// NewTimeSlotService returns a TimeSlotService.  guard supplies the venue
// day boundaries.
func NewTimeSlotService(st store.Store, guard *QuotaGuard) *TimeSlotService {
	if guard == nil {
		guard = NewQuotaGuard(DefaultMaxPerDay, time.UTC)
	}
	return &TimeSlotService{store: st, quota: guard}
}

// Location returns the venue timezone.
func (s *TimeSlotService) Location() *time.Location { return s.quota.Location }

// ListForDay returns the chapter's slots starting on the venue day that
// contains day.
func (s *TimeSlotService) ListForDay(ctx context.Context, chapterID string, day time.Time) ([]model.TimeSlot, error) {
	if chapterID == "" {
		return nil, &ValidationError{Field: "chapter", Reason: "is required"}
	}
	from, to := s.quota.DayBounds(day)
	slots, err := s.store.ListChapterSlots(ctx, chapterID, from, to)
	if err != nil {
		return nil, persistence("list time slots", err)
	}
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	return slots, nil
}

// Delete removes a slot.  A slot referenced by any reservation outside
// the deleted partition cannot be deleted.
func (s *TimeSlotService) Delete(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteTimeSlot(ctx, id)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Entity: "time slot", ID: id}
	case errors.Is(err, store.ErrSlotInUse):
		return ErrSlotInUse
	default:
		return persistence("delete time slot", err)
	}
}
