package service

import (
	"context"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// DefaultMaxPerDay is the number of active reservations a customer may
// hold for one venue day.
const DefaultMaxPerDay = 3

// QuotaGuard enforces the per-customer daily limits.  A customer is
// identified by the (email, phone) pair; the day is the calendar day of
// the slot start in the venue timezone.
type QuotaGuard struct {
	MaxPerDay int
	Location  *time.Location
}

// NewQuotaGuard returns a guard for the given venue location.  A
// non-positive max falls back to DefaultMaxPerDay.
func NewQuotaGuard(maxPerDay int, loc *time.Location) *QuotaGuard {
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxPerDay
	}
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaGuard{MaxPerDay: maxPerDay, Location: loc}
}

// DayBounds returns the venue-local day containing t as a half-open
// [start, end) interval.
func (g *QuotaGuard) DayBounds(t time.Time) (time.Time, time.Time) {
	lt := t.In(g.Location)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, g.Location)
	return start, start.AddDate(0, 0, 1)
}

// Check reads the customer's active reservations for the slot's day and
// evaluates them.  It performs no writes.
func (g *QuotaGuard) Check(ctx context.Context, tx store.Reservations, email, phone, scenarioID string, slotStart time.Time) error {
	from, to := g.DayBounds(slotStart)
	existing, err := tx.ActiveForIdentity(ctx, email, phone, from, to)
	if err != nil {
		return persistence("load daily reservations", err)
	}
	return g.evaluate(existing, scenarioID)
}

// evaluate applies the rules in order: one reservation per scenario per
// day, then the daily cap.
func (g *QuotaGuard) evaluate(existing []model.Reservation, scenarioID string) error {
	for _, r := range existing {
		if r.ScenarioID == scenarioID {
			return ErrDuplicateReservation
		}
	}
	if len(existing) >= g.MaxPerDay {
		return ErrQuotaExceeded
	}
	return nil
}
