package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger owns the per-event registration counter. The counter is denormalized
// onto the events row so the booking path can check capacity without counting
// ticket rows; per-type aggregates are computed on demand for reporting.
//
// Increment and Decrement take the caller's transaction: they must commit or
// roll back together with the ticket write that caused them.
type Ledger struct {
	db *pgxpool.Pool
}

// NewLedger constructs a Ledger.
func NewLedger(db *pgxpool.Pool) *Ledger {
	return &Ledger{db: db}
}

// Increment raises the event's registration count by one. The update is
// conditional on the event being active and below capacity, so even a caller
// that skipped the row lock cannot push the counter past max_capacity.
// A missing or cancelled event yields ErrNotFound, a full one ErrEventFull.
func (l *Ledger) Increment(ctx context.Context, q DBTX, eventID string) error {
	tag, err := q.Exec(ctx,
		`UPDATE events
		 SET current_registrations = current_registrations + 1, updated_at = now()
		 WHERE id = $1 AND status = 'active' AND current_registrations < max_capacity`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("increment registrations: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status model.EventStatus
	err = q.QueryRow(ctx, `SELECT status FROM events WHERE id = $1`, eventID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("check event status: %w", err)
	}
	if status != model.EventActive {
		return ErrNotFound
	}
	return ErrEventFull
}

// Decrement lowers the event's registration count by one, never below zero.
func (l *Ledger) Decrement(ctx context.Context, q DBTX, eventID string) error {
	tag, err := q.Exec(ctx,
		`UPDATE events
		 SET current_registrations = GREATEST(current_registrations - 1, 0), updated_at = now()
		 WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("decrement registrations: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Snapshot returns the event's counter, capacity, and per-type aggregates over
// registered tickets. It has no side effects.
func (l *Ledger) Snapshot(ctx context.Context, eventID string) (*model.LedgerSnapshot, error) {
	s := &model.LedgerSnapshot{EventID: eventID, ByType: []model.TypeAggregate{}}
	err := l.db.QueryRow(ctx,
		`SELECT status, max_capacity, current_registrations FROM events WHERE id = $1`,
		eventID,
	).Scan(&s.Status, &s.MaxCapacity, &s.CurrentRegistrations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	e := model.Event{Status: s.Status, MaxCapacity: s.MaxCapacity, CurrentRegistrations: s.CurrentRegistrations}
	s.Available = e.Remaining()

	rows, err := l.db.Query(ctx,
		`SELECT ticket_type, COUNT(*), COALESCE(SUM(price_paid), 0)
		 FROM tickets
		 WHERE event_id = $1 AND status = 'registered'
		 GROUP BY ticket_type
		 ORDER BY ticket_type`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate tickets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agg model.TypeAggregate
		if err := rows.Scan(&agg.Type, &agg.Count, &agg.Revenue); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		s.ByType = append(s.ByType, agg)
	}
	return s, rows.Err()
}
