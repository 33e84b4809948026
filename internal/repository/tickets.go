package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketUniqueConstraint = "tickets_user_event_type_key"

// TicketRepository handles persistence for tickets.
type TicketRepository struct {
	db     *pgxpool.Pool
	ledger *Ledger
}

// NewTicketRepository constructs a TicketRepository that keeps ledger in step
// with every ticket write.
func NewTicketRepository(db *pgxpool.Pool, ledger *Ledger) *TicketRepository {
	return &TicketRepository{db: db, ledger: ledger}
}

// Book creates a pending ticket and takes one seat from the event, atomically.
//
// ─────────────────────────────────────────────────────────────────────────────
// RACE CONDITION EXPLAINED
// ─────────────────────────────────────────────────────────────────────────────
//
// Naive read-then-write approach (BROKEN):
//
//	request A: SELECT current_registrations FROM events WHERE id = X  → 9
//	request B: SELECT current_registrations FROM events WHERE id = X  → 9
//	request A: capacity=10, 9 < 10, OK → INSERT ticket, UPDATE count=10
//	request B: capacity=10, 9 < 10, OK → INSERT ticket, UPDATE count=10
//	Result: 11 tickets for a 10-seat event. OVERBOOKED.
//
// SOLUTION: Pessimistic locking with SELECT … FOR UPDATE
//
//	The event row is locked before the capacity comparison, so concurrent
//	bookings for the same event run one after another. The ledger increment is
//	itself conditional on current_registrations < max_capacity, and the
//	(user, event, type) uniqueness rule is backed by a UNIQUE constraint, so
//	neither invariant depends on the lock alone.
//
// ─────────────────────────────────────────────────────────────────────────────
func (r *TicketRepository) Book(ctx context.Context, p model.BookingParams) (*model.Booking, error) {
	var booking *model.Booking
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// ── Step 1: Lock the event row. ────────────────────────────────────────
		var e model.Event
		err := tx.QueryRow(ctx,
			`SELECT title, general_price, vip_price, premium_price, max_capacity,
				current_registrations, status
			 FROM events
			 WHERE id = $1
			 FOR UPDATE`,
			p.EventID,
		).Scan(&e.Title, &e.GeneralPrice, &e.VIPPrice, &e.PremiumPrice, &e.MaxCapacity,
			&e.CurrentRegistrations, &e.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}
		if e.Status != model.EventActive {
			return ErrNotFound
		}

		// ── Step 2: Guard against overbooking. ────────────────────────────────
		if e.IsFull() {
			return ErrEventFull
		}

		// ── Step 3: Check for an existing ticket of this type, any status. ────
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM tickets WHERE user_id = $1 AND event_id = $2 AND ticket_type = $3
			 )`,
			p.UserID, p.EventID, p.Type,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return ErrDuplicateBooking
		}

		// ── Step 4: Create the ticket at the price in force right now. ────────
		t := &model.Ticket{
			ID:               uuid.New().String(),
			EventID:          p.EventID,
			UserID:           p.UserID,
			Type:             p.Type,
			PricePaid:        e.PriceFor(p.Type),
			BookingReference: p.BookingReference,
			SpecialRequests:  p.SpecialRequests,
			CustomerName:     p.CustomerName,
			CustomerEmail:    p.CustomerEmail,
			Status:           model.StatusPending,
			CreatedAt:        time.Now().UTC(),
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO tickets (id, event_id, user_id, ticket_type, price_paid, booking_reference,
				special_requests, customer_name, customer_email, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			t.ID, t.EventID, t.UserID, t.Type, t.PricePaid, t.BookingReference,
			t.SpecialRequests, t.CustomerName, t.CustomerEmail, t.Status, t.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, ticketUniqueConstraint) {
				return ErrDuplicateBooking
			}
			return fmt.Errorf("insert ticket: %w", err)
		}

		// ── Step 5: Take the seat in the same transaction. ───────────────────
		if err := r.ledger.Increment(ctx, tx, p.EventID); err != nil {
			return err
		}

		booking = &model.Booking{Ticket: t, EventTitle: e.Title}
		return nil
	})
	if err != nil {
		if domainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("book ticket: %w", err)
	}
	return booking, nil
}

// Decide moves a ticket on an event owned by organizerID to status to.
// The event row is locked before the ticket row, the same order Book and
// Cancel take them in. The prior status is read under the ticket lock in the
// same transaction as the update, so two concurrent rejections cannot both
// release the seat.
func (r *TicketRepository) Decide(ctx context.Context, organizerID, ticketID string, to model.TicketStatus) (*model.Decision, error) {
	d := &model.Decision{TicketID: ticketID, Status: to}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT e.id, e.title
			 FROM events e
			 JOIN tickets t ON t.event_id = e.id
			 WHERE t.id = $1 AND e.organizer_id = $2
			 FOR UPDATE OF e`,
			ticketID, organizerID,
		).Scan(&d.EventID, &d.EventTitle)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}
		err = tx.QueryRow(ctx,
			`SELECT status FROM tickets WHERE id = $1 FOR UPDATE`,
			ticketID,
		).Scan(&d.PriorStatus)
		if err != nil {
			return fmt.Errorf("lock ticket row: %w", err)
		}
		if !d.PriorStatus.CanTransitionTo(to) {
			return ErrInvalidState
		}

		if _, err := tx.Exec(ctx, `UPDATE tickets SET status = $2 WHERE id = $1`, ticketID, to); err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}
		if d.PriorStatus.ReleasesCapacity(to) {
			return r.ledger.Decrement(ctx, tx, d.EventID)
		}
		return nil
	})
	if err != nil {
		if domainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("decide registration: %w", err)
	}
	return d, nil
}

// GetForUser returns one of the user's own tickets, or ErrNotFound.
func (r *TicketRepository) GetForUser(ctx context.Context, userID, ticketID string) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, user_id, ticket_type, price_paid, booking_reference, special_requests,
			customer_name, customer_email, status, created_at
		 FROM tickets WHERE id = $1 AND user_id = $2`,
		ticketID, userID,
	).Scan(&t.ID, &t.EventID, &t.UserID, &t.Type, &t.PricePaid, &t.BookingReference, &t.SpecialRequests,
		&t.CustomerName, &t.CustomerEmail, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &t, nil
}

// ListByUser returns all of a user's tickets with event details, by event date.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]model.UserTicket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.event_id, t.user_id, t.ticket_type, t.price_paid, t.booking_reference,
			t.special_requests, t.customer_name, t.customer_email, t.status, t.created_at,
			e.title, e.starts_at, e.location, e.venue_name
		 FROM tickets t
		 JOIN events e ON e.id = t.event_id
		 WHERE t.user_id = $1
		 ORDER BY e.starts_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []model.UserTicket
	for rows.Next() {
		var ut model.UserTicket
		t := &ut.Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.Type, &t.PricePaid, &t.BookingReference,
			&t.SpecialRequests, &t.CustomerName, &t.CustomerEmail, &t.Status, &t.CreatedAt,
			&ut.EventTitle, &ut.EventStartsAt, &ut.EventLocation, &ut.VenueName); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, ut)
	}
	return out, rows.Err()
}

// ListForOrganizer returns the most recent tickets across the organizer's events.
func (r *TicketRepository) ListForOrganizer(ctx context.Context, organizerID string, limit int) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, e.id, e.title, t.customer_name, t.customer_email, t.ticket_type,
			t.price_paid, t.status, t.created_at
		 FROM tickets t
		 JOIN events e ON e.id = t.event_id
		 WHERE e.organizer_id = $1
		 ORDER BY t.created_at DESC
		 LIMIT $2`,
		organizerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.TicketID, &reg.EventID, &reg.EventTitle, &reg.CustomerName,
			&reg.CustomerEmail, &reg.Type, &reg.TotalAmount, &reg.Status, &reg.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// RegisteredAttendees returns the registered tickets of an event.
func (r *TicketRepository) RegisteredAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, id FROM tickets WHERE event_id = $1 AND status = 'registered' ORDER BY created_at`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	attendees, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Attendee])
	if err != nil {
		return nil, fmt.Errorf("scan attendees: %w", err)
	}
	return attendees, nil
}
