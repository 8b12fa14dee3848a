package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

func TestQuotaGuard_DayBounds(t *testing.T) {
	venue := time.FixedZone("venue", 60*60)
	g := NewQuotaGuard(3, venue)

	start, end := g.DayBounds(time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, venue), start)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, venue), end)

	start, _ = g.DayBounds(time.Date(2026, 3, 10, 22, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, venue), start)
}

func TestQuotaGuard_Defaults(t *testing.T) {
	g := NewQuotaGuard(0, nil)
	assert.Equal(t, DefaultMaxPerDay, g.MaxPerDay)
	assert.Equal(t, time.UTC, g.Location)
}

func TestQuotaGuard_Evaluate(t *testing.T) {
	g := NewQuotaGuard(3, time.UTC)
	held := func(scenarios ...string) []model.Reservation {
		out := make([]model.Reservation, len(scenarios))
		for i, sc := range scenarios {
			out[i] = model.Reservation{ID: sc, ScenarioID: sc, Status: model.PartitionPending}
		}
		return out
	}

	tests := []struct {
		name     string
		existing []model.Reservation
		scenario string
		want     error
	}{
		{"none", nil, "S", nil},
		{"two others", held("A", "B"), "S", nil},
		{"three others", held("A", "B", "C"), "S", ErrQuotaExceeded},
		{"same scenario", held("S"), "S", ErrDuplicateReservation},
		{"duplicate wins over cap", held("A", "B", "S"), "S", ErrDuplicateReservation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.evaluate(tt.existing, tt.scenario)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuotaGuard_CustomCap(t *testing.T) {
	g := NewQuotaGuard(1, time.UTC)
	err := g.evaluate([]model.Reservation{{ScenarioID: "A"}}, "B")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}
