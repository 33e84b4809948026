// Package repository implements all database queries for the event ticketing system.
// It uses pgx directly (no ORM) for transparency and performance.
//
// Every multi-statement write runs inside one pgx transaction so that a failure at
// any step leaves no partial state behind.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist or is not
// owned by the caller.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// ErrDuplicateBooking is returned when the user already holds a ticket of the
// same type for the event, whatever that ticket's status.
var ErrDuplicateBooking = errors.New("ticket of this type already booked for this event")

// ErrInvalidState is returned when a transition is not legal from the current status.
var ErrInvalidState = errors.New("invalid state transition")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so ledger operations
// can join the caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// domainErr reports whether err is one of the sentinel errors above, which are
// returned unwrapped so callers can match and display them directly.
func domainErr(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrDuplicateBooking) ||
		errors.Is(err, ErrInvalidState)
}

type scanner interface {
	Scan(dest ...any) error
}
