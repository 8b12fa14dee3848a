package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// Store wires the repositories into a store.Store backed by MySQL.
type Store struct {
	db            *sql.DB
	Slots         *TimeSlotRepo
	Reservations  *ReservationRepo
	Catalog       *CatalogRepo
	Notifications *NotificationRepo
	Staff         *StaffRepo

	maxRetries int
	log        *zap.Logger
}

// NewStore returns a Store.  maxRetries bounds how many times a
// transaction aborted by a deadlock or lock wait timeout is re-run.
func NewStore(db *sql.DB, maxRetries int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Store{
		db:            db,
		Slots:         NewTimeSlotRepo(db),
		Reservations:  NewReservationRepo(db),
		Catalog:       NewCatalogRepo(db),
		Notifications: NewNotificationRepo(db),
		Staff:         NewStaffRepo(db),
		maxRetries:    maxRetries,
		log:           log,
	}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// WithinTx implements store.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || !retryable(err) || attempt >= s.maxRetries {
			return err
		}
		s.log.Warn("transaction aborted, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &sqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) ListReservations(ctx context.Context) ([]model.ReservationDetail, error) {
	return s.Reservations.ListDetails(ctx)
}

func (s *Store) GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	return s.Reservations.GetDetail(ctx, id)
}

func (s *Store) ListChapterSlots(ctx context.Context, chapterID string, from, to time.Time) ([]model.TimeSlot, error) {
	return s.Slots.ListByChapter(ctx, chapterID, from, to)
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.Notifications.Create(ctx, n)
}

func (s *Store) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	return s.Notifications.List(ctx)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	return s.Notifications.MarkRead(ctx, id)
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	return s.Notifications.Delete(ctx, id)
}

func (s *Store) StaffEmails(ctx context.Context) ([]string, error) {
	return s.Staff.Emails(ctx)
}

// sqlTx adapts the repositories' Tx methods to store.Tx.
type sqlTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *sqlTx) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	return t.s.Catalog.GetScenario(ctx, t.tx, id)
}

func (t *sqlTx) GetChapter(ctx context.Context, id string) (*model.Chapter, error) {
	return t.s.Catalog.GetChapter(ctx, t.tx, id)
}

func (t *sqlTx) SiblingChapterIDs(ctx context.Context, scenarioID, chapterID string) ([]string, error) {
	return t.s.Catalog.SiblingChapterIDs(ctx, t.tx, scenarioID, chapterID)
}

func (t *sqlTx) GetTimeSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	return t.s.Slots.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) ListOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) ([]model.TimeSlot, error) {
	return t.s.Slots.ListOverlappingTx(ctx, t.tx, chapterIDs, start, end)
}

func (t *sqlTx) SetStatus(ctx context.Context, id string, status model.SlotStatus, blockedBy *string) error {
	return t.s.Slots.SetStatusTx(ctx, t.tx, id, status, blockedBy)
}

func (t *sqlTx) CompareAndSetStatus(ctx context.Context, id string, from []model.SlotStatus, to model.SlotStatus) (bool, error) {
	return t.s.Slots.CompareAndSetStatusTx(ctx, t.tx, id, from, to)
}

func (t *sqlTx) BlockOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time, owner string) ([]string, error) {
	return t.s.Slots.BlockOverlappingTx(ctx, t.tx, chapterIDs, start, end, owner)
}

func (t *sqlTx) ReleaseBlockedBy(ctx context.Context, owner string) ([]model.TimeSlot, error) {
	return t.s.Slots.ReleaseBlockedByTx(ctx, t.tx, owner)
}

func (t *sqlTx) DeleteTimeSlot(ctx context.Context, id string) error {
	return t.s.Slots.DeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return t.s.Reservations.CreateTx(ctx, t.tx, r)
}

func (t *sqlTx) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	return t.s.Reservations.GetByIDForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) MoveReservation(ctx context.Context, id string, from, to model.Partition) (bool, error) {
	return t.s.Reservations.MoveTx(ctx, t.tx, id, from, to)
}

func (t *sqlTx) ActiveForIdentity(ctx context.Context, email, phone string, from, to time.Time) ([]model.Reservation, error) {
	return t.s.Reservations.ActiveForIdentityTx(ctx, t.tx, email, phone, from, to)
}

func (t *sqlTx) OldestActiveOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) (string, bool, error) {
	return t.s.Reservations.OldestActiveOverlappingTx(ctx, t.tx, chapterIDs, start, end)
}

var (
	_ store.Store          = (*Store)(nil)
	_ store.Notifications  = (*Store)(nil)
	_ store.StaffDirectory = (*Store)(nil)
	_ store.Tx             = (*sqlTx)(nil)
)
