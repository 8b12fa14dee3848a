// Package repository is the MySQL implementation of the store contract.
// Each repository owns one table; methods with a Tx suffix run inside a
// caller-managed transaction and lock the rows they read with FOR UPDATE
// so that the check-then-write sequences of the lifecycle stay atomic.
//
// Errors are translated to the store sentinels: sql.ErrNoRows becomes
// store.ErrNotFound, a delete blocked by an active reservation becomes
// store.ErrSlotInUse.  Anything else is returned as-is and surfaces as a
// persistence error.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/escape-room-booking/internal/store"
)

// MySQL error numbers the transaction runner treats as transient.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// notFound maps sql.ErrNoRows to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// retryable reports whether InnoDB aborted the statement in a way that
// makes re-running the whole transaction safe.
func retryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrDeadlock || me.Number == mysqlErrLockWaitTimeout
}

// inClause returns "(?,?,?)" for n placeholders.
func inClause(n int) string {
	if n <= 0 {
		return "(NULL)"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}
