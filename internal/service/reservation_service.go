// Package service implements the reservation lifecycle: creation with
// quota and availability checks, staff approval and decline, deletion,
// and the blocking of overlapping slots in sibling chapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

const defaultNotifyTimeout = 10 * time.Second

// CreateReservationInput is the customer's booking request.
type CreateReservationInput struct {
	ScenarioID string `json:"scenario"`
	ChapterID  string `json:"chapter"`
	TimeSlotID string `json:"timeSlot"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Language   string `json:"language"`
	People     int    `json:"people"`
}

func (in *CreateReservationInput) normalize() {
	in.ScenarioID = strings.TrimSpace(in.ScenarioID)
	in.ChapterID = strings.TrimSpace(in.ChapterID)
	in.TimeSlotID = strings.TrimSpace(in.TimeSlotID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	// "Ada <ada@example.com>" and "ada@example.com" are the same customer
	if addr, err := mail.ParseAddress(in.Email); err == nil {
		in.Email = addr.Address
	}
	in.Phone = strings.TrimSpace(in.Phone)
	in.Language = strings.TrimSpace(in.Language)
}

// Column widths of the reservations table, in characters.
const (
	maxIDLen       = 36
	maxNameLen     = 255
	maxEmailLen    = 255
	maxPhoneLen    = 32
	maxLanguageLen = 16
)

// Validate checks field presence, length and shape.  It does not touch
// storage.  Language is optional.
func (in CreateReservationInput) Validate() error {
	fields := []struct {
		field, value string
		required     bool
		max          int
	}{
		{"scenario", in.ScenarioID, true, maxIDLen},
		{"chapter", in.ChapterID, true, maxIDLen},
		{"timeSlot", in.TimeSlotID, true, maxIDLen},
		{"name", in.Name, true, maxNameLen},
		{"email", in.Email, true, maxEmailLen},
		{"phone", in.Phone, true, maxPhoneLen},
		{"language", in.Language, false, maxLanguageLen},
	}
	for _, f := range fields {
		if f.required && f.value == "" {
			return &ValidationError{Field: f.field, Reason: "is required"}
		}
		if utf8.RuneCountInString(f.value) > f.max {
			return &ValidationError{Field: f.field, Reason: fmt.Sprintf("must be at most %d characters", f.max)}
		}
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if in.People <= 0 {
		return &ValidationError{Field: "people", Reason: "must be greater than zero"}
	}
	return nil
}

// ReservationService is the lifecycle orchestrator.  Each public method
// runs one store transaction; notifications go out after it commits.
type ReservationService struct {
	store         store.Store
	quota         *QuotaGuard
	resolver      OverlapResolver
	notifier      Notifier
	log           *zap.Logger
	now           func() time.Time
	newID         func() string
	notifyTimeout time.Duration
}

// Option configures a ReservationService.
type Option func(*ReservationService)

// WithNotifier sets the post-commit notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(s *ReservationService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *ReservationService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithQuotaGuard replaces the default quota guard (3 per UTC day).
func WithQuotaGuard(g *QuotaGuard) Option {
	return func(s *ReservationService) {
		if g != nil {
			s.quota = g
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

// WithIDGenerator overrides the reservation id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *ReservationService) { s.newID = gen }
}

// NewReservationService builds the orchestrator on top of st.
func NewReservationService(st store.Store, opts ...Option) *ReservationService {
	s := &ReservationService{
		store:         st,
		quota:         NewQuotaGuard(DefaultMaxPerDay, time.UTC),
		notifier:      NopNotifier{},
		log:           zap.NewNop(),
		now:           time.Now,
		newID:         uuid.NewString,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReservation books in.TimeSlotID for the customer.  The slot moves
// to pending, the reservation starts in the pending partition, and every
// available overlapping slot of the sibling chapters is blocked.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		created *model.Reservation
		event   model.ReservationEvent
		blocked []string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		slot, err := tx.GetTimeSlot(ctx, in.TimeSlotID)
		if err != nil {
			return lookupError("time slot", in.TimeSlotID, err)
		}
		if slot.Status != model.SlotAvailable {
			return ErrSlotUnavailable
		}
		scenario, err := tx.GetScenario(ctx, in.ScenarioID)
		if err != nil {
			return lookupError("scenario", in.ScenarioID, err)
		}
		chapter, err := tx.GetChapter(ctx, in.ChapterID)
		if err != nil {
			return lookupError("chapter", in.ChapterID, err)
		}
		if chapter.ScenarioID != scenario.ID {
			return &ValidationError{Field: "chapter", Reason: "does not belong to the scenario"}
		}
		if slot.ChapterID != chapter.ID {
			return &ValidationError{Field: "timeSlot", Reason: "does not belong to the chapter"}
		}

		if err := s.quota.Check(ctx, tx, in.Email, in.Phone, scenario.ID, slot.StartTime); err != nil {
			return err
		}

		claimed, err := tx.CompareAndSetStatus(ctx, slot.ID, []model.SlotStatus{model.SlotAvailable}, model.SlotPending)
		if err != nil {
			return persistence("claim time slot", err)
		}
		if !claimed {
			return ErrSlotUnavailable
		}

		now := s.now().UTC()
		r := &model.Reservation{
			ID:         s.newID(),
			ScenarioID: scenario.ID,
			ChapterID:  chapter.ID,
			TimeSlotID: slot.ID,
			Name:       in.Name,
			Email:      in.Email,
			Phone:      in.Phone,
			Language:   in.Language,
			People:     in.People,
			Status:     model.PartitionPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return persistence("save reservation", err)
		}
		if blocked, err = s.resolver.Block(ctx, tx, r, slot); err != nil {
			return err
		}
		created = r
		event = newEvent(r, slot, scenario.Name, chapter.Name)
		return nil
	})
	if err != nil {
		return nil, persistence("create reservation", err)
	}

	s.log.Info("reservation created",
		zap.String("reservation_id", created.ID),
		zap.String("time_slot_id", created.TimeSlotID),
		zap.Int("blocked_slots", len(blocked)),
	)
	s.dispatch(ctx, "created", event, s.notifier.ReservationCreated)
	return created, nil
}

// SetReservationStatus approves or declines the reservation id, which
// the caller expects to find in partition from.
func (s *ReservationService) SetReservationStatus(ctx context.Context, from model.Partition, id string, status model.Partition) (*model.Reservation, error) {
	if status != model.PartitionApproved && status != model.PartitionDeclined {
		return nil, &ValidationError{Field: "status", Reason: "must be approved or declined"}
	}

	var (
		updated *model.Reservation
		event   model.ReservationEvent
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := s.loadInPartition(ctx, tx, from, id)
		if err != nil {
			return err
		}
		slot, err := tx.GetTimeSlot(ctx, r.TimeSlotID)
		if err != nil {
			return lookupError("time slot", r.TimeSlotID, err)
		}

		switch status {
		case model.PartitionApproved:
			if r.Status != model.PartitionPending {
				return &TransitionError{From: r.Status, Event: "approve"}
			}
			if err := s.move(ctx, tx, r, model.PartitionApproved, "approve"); err != nil {
				return err
			}
			if err := tx.SetStatus(ctx, slot.ID, model.SlotBooked, nil); err != nil {
				return persistence("book time slot", err)
			}
			if _, err := s.resolver.Block(ctx, tx, r, slot); err != nil {
				return err
			}
		case model.PartitionDeclined:
			if !r.Status.Active() {
				return &TransitionError{From: r.Status, Event: "decline"}
			}
			if err := s.move(ctx, tx, r, model.PartitionDeclined, "decline"); err != nil {
				return err
			}
			if err := s.releaseAll(ctx, tx, r, slot); err != nil {
				return err
			}
		}

		scenarioName, chapterName := s.names(ctx, tx, r)
		updated = r
		event = newEvent(r, slot, scenarioName, chapterName)
		event.PreviousStatus = from
		return nil
	})
	if err != nil {
		return nil, persistence("update reservation status", err)
	}

	s.log.Info("reservation status changed",
		zap.String("reservation_id", updated.ID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
	)
	s.dispatch(ctx, string(status), event, s.notifier.ReservationStatusChanged)
	return updated, nil
}

// DeleteReservation moves the reservation id from partition from to the
// deleted partition.  When it still held its slot, the slot and every
// sibling slot it blocked become available again.
func (s *ReservationService) DeleteReservation(ctx context.Context, from model.Partition, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := s.loadInPartition(ctx, tx, from, id)
		if err != nil {
			return err
		}
		if r.Status == model.PartitionDeleted {
			return &TransitionError{From: r.Status, Event: "delete"}
		}
		wasActive := r.Status.Active()
		if err := s.move(ctx, tx, r, model.PartitionDeleted, "delete"); err != nil {
			return err
		}
		if !wasActive {
			_, err := s.resolver.Release(ctx, tx, r, nil)
			return err
		}
		slot, err := tx.GetTimeSlot(ctx, r.TimeSlotID)
		if err != nil {
			return lookupError("time slot", r.TimeSlotID, err)
		}
		return s.releaseAll(ctx, tx, r, slot)
	})
	if err != nil {
		return persistence("delete reservation", err)
	}
	s.log.Info("reservation deleted", zap.String("reservation_id", id), zap.String("from", string(from)))
	return nil
}

// ListReservations returns every reservation grouped by partition.
func (s *ReservationService) ListReservations(ctx context.Context) (model.ReservationsByPartition, error) {
	out := model.ReservationsByPartition{
		Pending:  []model.ReservationDetail{},
		Approved: []model.ReservationDetail{},
		Declined: []model.ReservationDetail{},
		Deleted:  []model.ReservationDetail{},
	}
	all, err := s.store.ListReservations(ctx)
	if err != nil {
		return out, persistence("list reservations", err)
	}
	for _, d := range all {
		out.Add(d)
	}
	return out, nil
}

// GetReservation returns one reservation with its display details.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*model.ReservationDetail, error) {
	d, err := s.store.GetReservationDetail(ctx, id)
	if err != nil {
		return nil, lookupError("reservation", id, err)
	}
	return d, nil
}

func (s *ReservationService) loadInPartition(ctx context.Context, tx store.Tx, p model.Partition, id string) (*model.Reservation, error) {
	r, err := tx.GetReservation(ctx, id)
	if err != nil {
		return nil, lookupError("reservation", id, err)
	}
	if r.Status != p {
		return nil, &NotFoundError{Entity: "reservation", ID: id}
	}
	return r, nil
}

func (s *ReservationService) move(ctx context.Context, tx store.Tx, r *model.Reservation, to model.Partition, event string) error {
	moved, err := tx.MoveReservation(ctx, r.ID, r.Status, to)
	if err != nil {
		return persistence("move reservation", err)
	}
	if !moved {
		return &TransitionError{From: r.Status, Event: event}
	}
	r.Status = to
	r.UpdatedAt = s.now().UTC()
	if to == model.PartitionDeleted {
		at := r.UpdatedAt
		r.DeletedAt = &at
	}
	return nil
}

// releaseAll frees r's own slot when r still holds it and releases the
// sibling slots r blocked.
func (s *ReservationService) releaseAll(ctx context.Context, tx store.Tx, r *model.Reservation, slot *model.TimeSlot) error {
	freed, err := tx.CompareAndSetStatus(ctx, slot.ID,
		[]model.SlotStatus{model.SlotPending, model.SlotBooked}, model.SlotAvailable)
	if err != nil {
		return persistence("free time slot", err)
	}
	var own *model.TimeSlot
	if freed {
		own = slot
		own.Status, own.IsAvailable, own.BlockedBy = model.SlotAvailable, true, nil
	}
	_, err = s.resolver.Release(ctx, tx, r, own)
	return err
}

func (s *ReservationService) names(ctx context.Context, tx store.Tx, r *model.Reservation) (string, string) {
	scenarioName := fmt.Sprintf("Scenario %s", r.ScenarioID)
	chapterName := fmt.Sprintf("Chapter %s", r.ChapterID)
	if sc, err := tx.GetScenario(ctx, r.ScenarioID); err == nil && sc.Name != "" {
		scenarioName = sc.Name
	}
	if ch, err := tx.GetChapter(ctx, r.ChapterID); err == nil && ch.Name != "" {
		chapterName = ch.Name
	}
	return scenarioName, chapterName
}

// dispatch hands ev to the notifier with a context that survives the
// request.  Failures are logged and dropped.
func (s *ReservationService) dispatch(ctx context.Context, kind string, ev model.ReservationEvent, send func(context.Context, model.ReservationEvent) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("reservation notifier panicked",
				zap.String("event", kind),
				zap.String("reservation_id", ev.ReservationID),
				zap.Any("panic", p),
			)
		}
	}()
	if err := send(ctx, ev); err != nil {
		s.log.Warn("reservation notification failed",
			zap.String("event", kind),
			zap.String("reservation_id", ev.ReservationID),
			zap.Error(err),
		)
	}
}

func lookupError(entity, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return persistence("load "+entity, err)
}
