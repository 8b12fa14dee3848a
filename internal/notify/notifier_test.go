package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/escape-room-booking/internal/mail"
	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/queue"
	"github.com/iliyamo/escape-room-booking/internal/realtime"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

type mockQueue struct{ mock.Mock }

func (m *mockQueue) Enqueue(ctx context.Context, job queue.EmailJob) error {
	return m.Called(ctx, job).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	return m.Called(ctx, ev).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

var tunis = time.FixedZone("CET", 60*60)

func event() model.ReservationEvent {
	return model.ReservationEvent{
		ReservationID: "r1",
		Name:          "Ada",
		Email:         "ada@example.com",
		Phone:         "+216",
		Language:      "en",
		People:        4,
		ScenarioName:  "Tomb",
		ChapterName:   "Chapter One",
		SlotStart:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		SlotEnd:       time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
		Status:        model.PartitionPending,
	}
}

func newNotifier(t *testing.T, q EmailQueue, rt realtime.Publisher) (*Notifier, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddStaff("boss@example.com")
	mem.AddStaff("deputy@example.com")
	n, err := New(Config{Venue: "The Room", DashboardURL: "https://dash.example.com", Location: tunis}, q, mem, mem, rt, nil)
	require.NoError(t, err)
	return n, mem
}

func TestReservationCreated_FansOut(t *testing.T) {
	q := &mockQueue{}
	q.On("Enqueue", mock.Anything, mock.MatchedBy(func(j queue.EmailJob) bool {
		return j.To == "ada@example.com" && j.Kind == "created" &&
			assert.Contains(t, j.HTML, "10/03/2026 10:00") &&
			assert.Contains(t, j.HTML, "Tomb")
	})).Return(nil).Once()
	q.On("Enqueue", mock.Anything, mock.MatchedBy(func(j queue.EmailJob) bool {
		return j.To == "boss@example.com" || j.To == "deputy@example.com"
	})).Return(nil).Twice()

	rt := &mockPublisher{}
	rt.On("Publish", mock.Anything, mock.MatchedBy(func(ev realtime.Event) bool {
		rec, ok := ev.Data.(*model.Notification)
		return ev.Name == realtime.EventNotificationCreated && ok && rec.ReservationID == "r1"
	})).Return(nil).Once()

	n, mem := newNotifier(t, q, rt)
	require.NoError(t, n.ReservationCreated(context.Background(), event()))

	q.AssertExpectations(t)
	rt.AssertExpectations(t)

	records, err := mem.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "New reservation from Ada: Tomb - Chapter One on 10/03/2026 10:00", records[0].Message)
	assert.False(t, records[0].IsRead)
}

func TestReservationCreated_CollectsFailures(t *testing.T) {
	q := &mockQueue{}
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	rt := &mockPublisher{}
	rt.On("Publish", mock.Anything, mock.Anything).Return(nil)

	n, mem := newNotifier(t, q, rt)
	err := n.ReservationCreated(context.Background(), event())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer email")
	assert.Contains(t, err.Error(), "staff email boss@example.com")

	// the record and the push still happen
	records, _ := mem.ListNotifications(context.Background())
	assert.Len(t, records, 1)
	rt.AssertNumberOfCalls(t, "Publish", 1)
}

func TestReservationStatusChanged(t *testing.T) {
	tests := []struct {
		name     string
		status   model.Partition
		previous model.Partition
		subject  string
		body     string
	}{
		{"approved", model.PartitionApproved, model.PartitionPending, "Reservation approved", "confirmed"},
		{"declined", model.PartitionDeclined, model.PartitionPending, "Reservation declined", "could not accept"},
		{"cancelled after approval", model.PartitionDeclined, model.PartitionApproved,
			"Reservation cancelled due to technical problems", "technical problems"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got queue.EmailJob
			q := &mockQueue{}
			q.On("Enqueue", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(1).(queue.EmailJob) }).
				Return(nil).Once()

			n, _ := newNotifier(t, q, nil)
			ev := event()
			ev.Status, ev.PreviousStatus = tt.status, tt.previous
			require.NoError(t, n.ReservationStatusChanged(context.Background(), ev))

			q.AssertExpectations(t)
			assert.Equal(t, "ada@example.com", got.To)
			assert.Equal(t, tt.subject, got.Subject)
			assert.Contains(t, got.HTML, tt.body)
			assert.Equal(t, string(tt.status), got.Kind)
		})
	}
}

func TestReservationStatusChanged_IgnoresOtherStatuses(t *testing.T) {
	q := &mockQueue{}
	n, _ := newNotifier(t, q, nil)
	ev := event()
	ev.Status = model.PartitionDeleted
	require.NoError(t, n.ReservationStatusChanged(context.Background(), ev))
	q.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDirectQueue_SendsThroughMailer(t *testing.T) {
	m := &mockMailer{}
	m.On("Send", mock.Anything, mail.Message{To: "a@b.c", Subject: "hi", HTML: "<p>x</p>"}).Return(nil).Once()

	err := DirectQueue{Mailer: m}.Enqueue(context.Background(), queue.EmailJob{To: "a@b.c", Subject: "hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestRender_EscapesCustomerInput(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)
	ev := event()
	ev.Name = `<script>alert(1)</script>`
	html, err := r.render(tmplCustomerCreated, view{Title: "t", Color: "#000", Event: ev})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")

	_, err = r.render("nope", view{})
	assert.Error(t, err)
}
