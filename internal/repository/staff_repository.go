package repository

import (
	"context"
	"database/sql"
)

// StaffRoles are the users.usertype values that receive reservation
// emails and may manage reservations.
var StaffRoles = []string{"admin", "subadmin"}

// StaffRepo reads staff members from the users table.  Accounts are
// managed by the auth service; this repository never writes.
type StaffRepo struct {
	db *sql.DB
}

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// Emails returns the addresses of every staff account.
func (r *StaffRepo) Emails(ctx context.Context) ([]string, error) {
	q := `SELECT email FROM users WHERE usertype IN ` + inClause(len(StaffRoles)) + ` AND email <> '' ORDER BY email`
	rows, err := r.db.QueryContext(ctx, q, stringArgs(StaffRoles)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
