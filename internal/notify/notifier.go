// Package notify turns committed reservation transitions into customer
// and staff emails, dashboard notification records and real-time events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/escape-room-booking/internal/mail"
	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/queue"
	"github.com/iliyamo/escape-room-booking/internal/realtime"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// EmailQueue accepts rendered emails for delivery.
type EmailQueue interface {
	Enqueue(ctx context.Context, job queue.EmailJob) error
}

// DirectQueue delivers jobs synchronously.  Used when no broker is
// configured.
type DirectQueue struct {
	Mailer mail.Mailer
}

func (q DirectQueue) Enqueue(ctx context.Context, job queue.EmailJob) error {
	return Deliver(q.Mailer)(ctx, job)
}

// Deliver adapts a Mailer into a queue consumer handler.
func Deliver(m mail.Mailer) queue.Handler {
	return func(ctx context.Context, job queue.EmailJob) error {
		return m.Send(ctx, mail.Message{To: job.To, Subject: job.Subject, HTML: job.HTML, Text: job.Text})
	}
}

// Config holds the presentation settings.
type Config struct {
	Venue        string
	DashboardURL string
	Location     *time.Location
}

// Notifier implements service.Notifier.
type Notifier struct {
	cfg      Config
	emails   EmailQueue
	staff    store.StaffDirectory
	records  store.Notifications
	realtime realtime.Publisher
	render   *renderer
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Notifier.  rt may be nil.
func New(cfg Config, emails EmailQueue, staff store.StaffDirectory, records store.Notifications, rt realtime.Publisher, log *zap.Logger) (*Notifier, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Venue == "" {
		cfg.Venue = "The Room"
	}
	if rt == nil {
		rt = realtime.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		cfg:      cfg,
		emails:   emails,
		staff:    staff,
		records:  records,
		realtime: rt,
		render:   r,
		log:      log,
		now:      time.Now,
	}, nil
}

func (n *Notifier) view(title string, color template.CSS, ev model.ReservationEvent) view {
	return view{
		Title:        title,
		Color:        color,
		Venue:        n.cfg.Venue,
		Year:         n.now().In(n.cfg.Location).Year(),
		Event:        ev,
		Start:        formatSlot(ev.SlotStart, n.cfg.Location),
		End:          formatSlot(ev.SlotEnd, n.cfg.Location),
		DashboardURL: n.cfg.DashboardURL,
		WasApproved:  ev.PreviousStatus == model.PartitionApproved,
	}
}

func (n *Notifier) enqueue(ctx context.Context, tmpl, kind, to, subject string, v view) error {
	html, err := n.render.render(tmpl, v)
	if err != nil {
		return err
	}
	return n.emails.Enqueue(ctx, queue.EmailJob{
		To:            to,
		Subject:       subject,
		HTML:          html,
		ReservationID: v.Event.ReservationID,
		Kind:          kind,
	})
}

// ReservationCreated sends the customer acknowledgement, one email per
// staff member, stores a dashboard notification and broadcasts it.
// Every step runs even when an earlier one failed.
func (n *Notifier) ReservationCreated(ctx context.Context, ev model.ReservationEvent) error {
	var errs []error

	v := n.view("Reservation received", "#007BFF", ev)
	if err := n.enqueue(ctx, tmplCustomerCreated, "created", ev.Email, "Your reservation request has been received", v); err != nil {
		errs = append(errs, fmt.Errorf("customer email: %w", err))
	}

	staff, err := n.staff.StaffEmails(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load staff: %w", err))
	}
	sv := n.view("New reservation pending", "#d9534f", ev)
	for _, to := range staff {
		if err := n.enqueue(ctx, tmplStaffCreated, "created", to, "New reservation awaiting approval", sv); err != nil {
			errs = append(errs, fmt.Errorf("staff email %s: %w", to, err))
		}
	}

	rec := &model.Notification{
		ID:            uuid.NewString(),
		ReservationID: ev.ReservationID,
		Message: fmt.Sprintf("New reservation from %s: %s - %s on %s",
			ev.Name, ev.ScenarioName, ev.ChapterName, formatSlot(ev.SlotStart, n.cfg.Location)),
		CreatedAt: n.now().UTC(),
	}
	if err := n.records.CreateNotification(ctx, rec); err != nil {
		errs = append(errs, fmt.Errorf("notification record: %w", err))
	} else if err := n.realtime.Publish(ctx, realtime.Event{Name: realtime.EventNotificationCreated, Data: rec}); err != nil {
		errs = append(errs, fmt.Errorf("realtime publish: %w", err))
	}

	n.log.Debug("reservation created notifications dispatched",
		zap.String("reservation_id", ev.ReservationID),
		zap.Int("staff", len(staff)),
		zap.Int("failures", len(errs)),
	)
	return errors.Join(errs...)
}

// ReservationStatusChanged emails the customer about an approval or a
// decline.
func (n *Notifier) ReservationStatusChanged(ctx context.Context, ev model.ReservationEvent) error {
	switch ev.Status {
	case model.PartitionApproved:
		v := n.view("Reservation approved", "#4CAF50", ev)
		return n.enqueue(ctx, tmplCustomerApproved, "approved", ev.Email, "Reservation approved", v)
	case model.PartitionDeclined:
		subject := "Reservation declined"
		if ev.PreviousStatus == model.PartitionApproved {
			subject = "Reservation cancelled due to technical problems"
		}
		v := n.view("Reservation declined", "#FF5733", ev)
		return n.enqueue(ctx, tmplCustomerDeclined, "declined", ev.Email, subject, v)
	}
	return nil
}
