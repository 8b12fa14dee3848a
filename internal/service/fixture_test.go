package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// day is the venue day most tests book on.
var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []model.ReservationEvent
	changed []model.ReservationEvent
	err     error
	panics  bool
}

func (n *recordingNotifier) ReservationCreated(_ context.Context, ev model.ReservationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.panics {
		panic("notifier exploded")
	}
	n.created = append(n.created, ev)
	return n.err
}

func (n *recordingNotifier) ReservationStatusChanged(_ context.Context, ev model.ReservationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.panics {
		panic("notifier exploded")
	}
	n.changed = append(n.changed, ev)
	return n.err
}

type fixture struct {
	mem      *store.Memory
	svc      *ReservationService
	notifier *recordingNotifier
}

// newFixture seeds scenario S with chapters C1, C2 and C3 sharing one
// room, plus scenarios T, U and V with a single chapter each.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	mem := store.NewMemory()
	mem.AddScenario(model.Scenario{ID: "S", Name: "Pharaoh's Curse"})
	for _, ch := range []string{"C1", "C2", "C3"} {
		mem.AddChapter(model.Chapter{ID: ch, ScenarioID: "S", Name: "Chapter " + ch})
	}
	for _, sc := range []string{"T", "U", "V"} {
		mem.AddScenario(model.Scenario{ID: sc, Name: "Scenario " + sc})
		mem.AddChapter(model.Chapter{ID: sc + "1", ScenarioID: sc, Name: sc + " one"})
	}

	var (
		seq   atomic.Int64
		ticks atomic.Int64
	)
	rec := &recordingNotifier{}
	base := []Option{
		WithNotifier(rec),
		WithIDGenerator(func() string { return fmt.Sprintf("res-%d", seq.Add(1)) }),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(ticks.Add(1)) * time.Second)
		}),
	}
	svc := NewReservationService(mem, append(base, opts...)...)
	return &fixture{mem: mem, svc: svc, notifier: rec}
}

func (f *fixture) slot(id, chapter string, start, end time.Time) {
	f.mem.AddTimeSlot(model.TimeSlot{ID: id, ChapterID: chapter, StartTime: start, EndTime: end})
}

func (f *fixture) requireSlot(t *testing.T, id string, status model.SlotStatus, blockedBy string) {
	t.Helper()
	ts, ok := f.mem.TimeSlot(id)
	require.True(t, ok, "slot %s missing", id)
	require.Equal(t, status, ts.Status, "slot %s status", id)
	require.Equal(t, status == model.SlotAvailable, ts.IsAvailable, "slot %s is_available", id)
	if blockedBy == "" {
		require.Nil(t, ts.BlockedBy, "slot %s blocked_by", id)
	} else {
		require.NotNil(t, ts.BlockedBy, "slot %s blocked_by", id)
		require.Equal(t, blockedBy, *ts.BlockedBy, "slot %s blocked_by", id)
	}
}

func booking(scenario, chapter, slot string) CreateReservationInput {
	return CreateReservationInput{
		ScenarioID: scenario,
		ChapterID:  chapter,
		TimeSlotID: slot,
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Phone:      "+21620000000",
		Language:   "en",
		People:     4,
	}
}

func bookingBy(scenario, chapter, slot, email string) CreateReservationInput {
	in := booking(scenario, chapter, slot)
	in.Email = email
	return in
}
