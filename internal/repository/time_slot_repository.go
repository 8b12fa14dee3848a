package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// TimeSlotRepo reads and writes the time_slots table.  Status and
// is_available are always written together; blocked_by is non-null only
// while status is 'blocked'.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo returns a TimeSlotRepo bound to db.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

const slotColumns = `id, chapter_id, start_time, end_time, status, is_available, blocked_by, updated_at`

func scanSlot(s rowScanner) (model.TimeSlot, error) {
	var (
		ts        model.TimeSlot
		blockedBy sql.NullString
	)
	err := s.Scan(&ts.ID, &ts.ChapterID, &ts.StartTime, &ts.EndTime, &ts.Status, &ts.IsAvailable, &blockedBy, &ts.UpdatedAt)
	if err != nil {
		return ts, err
	}
	if blockedBy.Valid {
		b := blockedBy.String
		ts.BlockedBy = &b
	}
	return ts, nil
}

func scanSlots(rows *sql.Rows) ([]model.TimeSlot, error) {
	defer rows.Close()
	var out []model.TimeSlot
	for rows.Next() {
		ts, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// GetByIDForUpdateTx loads a slot and locks it until tx ends.
func (r *TimeSlotRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.TimeSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = ? FOR UPDATE`
	ts, err := scanSlot(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &ts, nil
}

// ListOverlappingTx returns the slots of chapterIDs intersecting the open
// interval (start, end).
func (r *TimeSlotRepo) ListOverlappingTx(ctx context.Context, tx *sql.Tx, chapterIDs []string, start, end time.Time) ([]model.TimeSlot, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + slotColumns + ` FROM time_slots
		WHERE chapter_id IN ` + inClause(len(chapterIDs)) + `
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time, id`
	args := append(stringArgs(chapterIDs), end.UTC(), start.UTC())
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}

// SetStatusTx writes status, is_available and blocked_by.
func (r *TimeSlotRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.SlotStatus, blockedBy *string) error {
	const q = `UPDATE time_slots
		SET status = ?, is_available = ?, blocked_by = ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	var owner sql.NullString
	if blockedBy != nil {
		owner = sql.NullString{String: *blockedBy, Valid: true}
	}
	_, err := tx.ExecContext(ctx, q, status, status == model.SlotAvailable, owner, id)
	return err
}

// CompareAndSetStatusTx moves the slot to `to` only if its status is one
// of from.  The check and the write are one statement, so two callers
// racing for the same slot cannot both succeed.
func (r *TimeSlotRepo) CompareAndSetStatusTx(ctx context.Context, tx *sql.Tx, id string, from []model.SlotStatus, to model.SlotStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	q := `UPDATE time_slots
		SET status = ?, is_available = ?, blocked_by = NULL, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND status IN ` + inClause(len(from))
	args := []any{to, to == model.SlotAvailable, id}
	for _, s := range from {
		args = append(args, s)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BlockOverlappingTx blocks every available slot of chapterIDs that
// intersects (start, end) on behalf of owner.  Slots in any other state
// are left alone.
func (r *TimeSlotRepo) BlockOverlappingTx(ctx context.Context, tx *sql.Tx, chapterIDs []string, start, end time.Time, owner string) ([]string, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}
	sel := `SELECT id FROM time_slots
		WHERE chapter_id IN ` + inClause(len(chapterIDs)) + `
		  AND status = 'available' AND start_time < ? AND end_time > ?
		ORDER BY id
		FOR UPDATE`
	args := append(stringArgs(chapterIDs), end.UTC(), start.UTC())
	rows, err := tx.QueryContext(ctx, sel, args...)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	upd := `UPDATE time_slots
		SET status = 'blocked', is_available = 0, blocked_by = ?, updated_at = UTC_TIMESTAMP()
		WHERE id IN ` + inClause(len(ids)) + ` AND status = 'available'`
	if _, err := tx.ExecContext(ctx, upd, append([]any{owner}, stringArgs(ids)...)...); err != nil {
		return nil, err
	}
	return ids, nil
}

// ReleaseBlockedByTx frees the slots blocked by owner and returns them in
// their released state.  Slots blocked by anyone else are untouched.
func (r *TimeSlotRepo) ReleaseBlockedByTx(ctx context.Context, tx *sql.Tx, owner string) ([]model.TimeSlot, error) {
	sel := `SELECT ` + slotColumns + ` FROM time_slots
		WHERE blocked_by = ? AND status = 'blocked'
		ORDER BY start_time, id
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, sel, owner)
	if err != nil {
		return nil, err
	}
	slots, err := scanSlots(rows)
	if err != nil || len(slots) == 0 {
		return nil, err
	}

	const upd = `UPDATE time_slots
		SET status = 'available', is_available = 1, blocked_by = NULL, updated_at = UTC_TIMESTAMP()
		WHERE blocked_by = ? AND status = 'blocked'`
	if _, err := tx.ExecContext(ctx, upd, owner); err != nil {
		return nil, err
	}
	for i := range slots {
		slots[i].Status = model.SlotAvailable
		slots[i].IsAvailable = true
		slots[i].BlockedBy = nil
	}
	return slots, nil
}

// DeleteTx removes a slot.  It refuses while any reservation that is not
// deleted points at it.
func (r *TimeSlotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := r.GetByIDForUpdateTx(ctx, tx, id); err != nil {
		return err
	}
	var refs int
	const cnt = `SELECT COUNT(*) FROM reservations WHERE time_slot_id = ? AND status <> 'deleted'`
	if err := tx.QueryRowContext(ctx, cnt, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return store.ErrSlotInUse
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	return err
}

// ListByChapter returns the chapter's slots starting in [from, to).
func (r *TimeSlotRepo) ListByChapter(ctx context.Context, chapterID string, from, to time.Time) ([]model.TimeSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM time_slots
		WHERE chapter_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, q, chapterID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return scanSlots(rows)
}
