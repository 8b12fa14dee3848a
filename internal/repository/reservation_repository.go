package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

// ReservationRepo stores reservations in a single table.  The status
// column is the partition (pending, approved, declined, deleted), so a
// reservation keeps its id for its whole life and moving between
// partitions is a conditional update of one row.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.scenario_id, r.chapter_id, r.time_slot_id, r.name, r.email, r.phone,
	r.language, r.people, r.status, r.created_at, r.updated_at, r.deleted_at`

func scanReservation(s rowScanner, extra ...any) (model.Reservation, error) {
	var (
		res       model.Reservation
		deletedAt sql.NullTime
	)
	dest := []any{
		&res.ID, &res.ScenarioID, &res.ChapterID, &res.TimeSlotID, &res.Name, &res.Email, &res.Phone,
		&res.Language, &res.People, &res.Status, &res.CreatedAt, &res.UpdatedAt, &deletedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return res, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		res.DeletedAt = &t
	}
	return res, nil
}

// CreateTx inserts res within tx.  The caller supplies the id and the
// timestamps.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(id, scenario_id, chapter_id, time_slot_id, name, email, phone, language, people, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		res.ID, res.ScenarioID, res.ChapterID, res.TimeSlotID, res.Name, res.Email, res.Phone,
		res.Language, res.People, res.Status, res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	return err
}

// GetByIDForUpdateTx loads a reservation and locks its row.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// MoveTx changes the partition of id from `from` to `to`.  It reports
// false when the row was not in `from`.
func (r *ReservationRepo) MoveTx(ctx context.Context, tx *sql.Tx, id string, from, to model.Partition) (bool, error) {
	const q = `UPDATE reservations
		SET status = ?,
		    updated_at = UTC_TIMESTAMP(),
		    deleted_at = CASE WHEN ? = 'deleted' THEN UTC_TIMESTAMP() ELSE deleted_at END
		WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ActiveForIdentityTx returns the pending and approved reservations of
// (email, phone) whose slot starts in [from, to).  The locking read takes
// next-key locks on the identity index, so a concurrent booking by the
// same customer waits until this transaction ends.
func (r *ReservationRepo) ActiveForIdentityTx(ctx context.Context, tx *sql.Tx, email, phone string, from, to time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN time_slots s ON s.id = r.time_slot_id
		WHERE r.email = ? AND r.phone = ?
		  AND r.status IN ('pending', 'approved')
		  AND s.start_time >= ? AND s.start_time < ?
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, email, phone, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// OldestActiveOverlappingTx finds the earliest created active reservation
// whose slot is in chapterIDs and intersects (start, end).
func (r *ReservationRepo) OldestActiveOverlappingTx(ctx context.Context, tx *sql.Tx, chapterIDs []string, start, end time.Time) (string, bool, error) {
	if len(chapterIDs) == 0 {
		return "", false, nil
	}
	q := `SELECT r.id
		FROM reservations r
		JOIN time_slots s ON s.id = r.time_slot_id
		WHERE r.status IN ('pending', 'approved')
		  AND s.chapter_id IN ` + inClause(len(chapterIDs)) + `
		  AND s.start_time < ? AND s.end_time > ?
		ORDER BY r.created_at, r.id
		LIMIT 1`
	args := append(stringArgs(chapterIDs), end.UTC(), start.UTC())
	var id string
	err := tx.QueryRowContext(ctx, q, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

const detailQuery = `SELECT ` + reservationColumns + `,
		COALESCE(sc.name, ''), COALESCE(ch.name, ''), s.start_time, s.end_time
	FROM reservations r
	LEFT JOIN scenarios sc ON sc.id = r.scenario_id
	LEFT JOIN chapters ch ON ch.id = r.chapter_id
	LEFT JOIN time_slots s ON s.id = r.time_slot_id`

func scanDetail(s rowScanner) (model.ReservationDetail, error) {
	var (
		d          model.ReservationDetail
		start, end sql.NullTime
	)
	res, err := scanReservation(s, &d.ScenarioName, &d.ChapterName, &start, &end)
	if err != nil {
		return d, err
	}
	d.Reservation = res
	d.SlotStart, d.SlotEnd = start.Time, end.Time
	return d, nil
}

// ListDetails returns every reservation, newest first.
func (r *ReservationRepo) ListDetails(ctx context.Context) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQuery+` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReservationDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetail returns one reservation with display details.
func (r *ReservationRepo) GetDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, detailQuery+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}
