package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, organizer_id, title, description, category, starts_at, location, venue_name,
	general_price, vip_price, premium_price, max_capacity, current_registrations, status,
	created_at, updated_at`

func scanEvent(row scanner, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.StartsAt, &e.Location, &e.VenueName,
		&e.GeneralPrice, &e.VIPPrice, &e.PremiumPrice, &e.MaxCapacity, &e.CurrentRegistrations, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

// EventRepository handles persistence for events, including the cancellation cascade.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new active event owned by organizerID.
func (r *EventRepository) Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	now := time.Now().UTC()
	event := &model.Event{
		ID:           uuid.New().String(),
		OrganizerID:  organizerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		StartsAt:     req.StartsAt,
		Location:     req.Location,
		VenueName:    req.VenueName,
		GeneralPrice: req.GeneralPrice,
		VIPPrice:     req.VIPPrice,
		PremiumPrice: req.PremiumPrice,
		MaxCapacity:  req.MaxCapacity,
		Status:       model.EventActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		event.ID, event.OrganizerID, event.Title, event.Description, event.Category, event.StartsAt,
		event.Location, event.VenueName, event.GeneralPrice, event.VIPPrice, event.PremiumPrice,
		event.MaxCapacity, event.CurrentRegistrations, event.Status, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// Update replaces the editable fields of an active event owned by organizerID.
// Capacity may not drop below the seats already taken.
func (r *EventRepository) Update(ctx context.Context, organizerID, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	var event model.Event
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var status model.EventStatus
		var current int
		err := tx.QueryRow(ctx,
			`SELECT status, current_registrations FROM events
			 WHERE id = $1 AND organizer_id = $2
			 FOR UPDATE`,
			eventID, organizerID,
		).Scan(&status, &current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}
		if status != model.EventActive || req.MaxCapacity < current {
			return ErrInvalidState
		}

		return scanEvent(tx.QueryRow(ctx,
			`UPDATE events SET
				title = $3, description = $4, category = $5, starts_at = $6, location = $7,
				venue_name = $8, general_price = $9, vip_price = $10, premium_price = $11,
				max_capacity = $12, updated_at = now()
			 WHERE id = $1 AND organizer_id = $2
			 RETURNING `+eventColumns,
			eventID, organizerID, req.Title, req.Description, req.Category, req.StartsAt, req.Location,
			req.VenueName, req.GeneralPrice, req.VIPPrice, req.PremiumPrice, req.MaxCapacity,
		), &event)
	})
	if err != nil {
		if domainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &event, nil
}

// GetOwned returns an event owned by organizerID, or ErrNotFound.
func (r *EventRepository) GetOwned(ctx context.Context, organizerID, eventID string) (*model.Event, error) {
	var e model.Event
	err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND organizer_id = $2`,
		eventID, organizerID,
	), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ListByOrganizer returns the organizer's events with registered-ticket revenue
// and per-type counts, newest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]model.EventSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.organizer_id, e.title, e.description, e.category, e.starts_at, e.location,
			e.venue_name, e.general_price, e.vip_price, e.premium_price, e.max_capacity,
			e.current_registrations, e.status, e.created_at, e.updated_at,
			COALESCE(SUM(t.price_paid), 0),
			COUNT(*) FILTER (WHERE t.ticket_type = 'general'),
			COUNT(*) FILTER (WHERE t.ticket_type = 'vip'),
			COUNT(*) FILTER (WHERE t.ticket_type = 'premium')
		 FROM events e
		 LEFT JOIN tickets t ON t.event_id = e.id AND t.status = 'registered'
		 WHERE e.organizer_id = $1
		 GROUP BY e.id
		 ORDER BY e.starts_at DESC`,
		organizerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	defer rows.Close()

	var out []model.EventSummary
	for rows.Next() {
		var (
			s                     model.EventSummary
			general, vip, premium int
		)
		e := &s.Event
		if err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.StartsAt, &e.Location,
			&e.VenueName, &e.GeneralPrice, &e.VIPPrice, &e.PremiumPrice, &e.MaxCapacity,
			&e.CurrentRegistrations, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&s.Revenue, &general, &vip, &premium,
		); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		s.Registrations = map[model.TicketType]int{
			model.TicketGeneral: general,
			model.TicketVIP:     vip,
			model.TicketPremium: premium,
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListActive returns active events matching filter, soonest first. Filter values
// are bound as parameters.
func (r *EventRepository) ListActive(ctx context.Context, filter model.EventFilter) ([]model.PublicEvent, error) {
	var (
		where = []string{"e.status = 'active'"}
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "e.category = $"+strconv.Itoa(len(args)))
	}
	if filter.Location != "" {
		args = append(args, "%"+escapeLike(filter.Location)+"%")
		where = append(where, "e.location ILIKE $"+strconv.Itoa(len(args)))
	}

	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.organizer_id, e.title, e.description, e.category, e.starts_at, e.location,
			e.venue_name, e.general_price, e.vip_price, e.premium_price, e.max_capacity,
			e.current_registrations, e.status, e.created_at, e.updated_at,
			COALESCE(NULLIF(u.organization, ''), u.first_name || ' ' || u.last_name)
		 FROM events e
		 JOIN users u ON u.id = e.organizer_id
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY e.starts_at ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list active events: %w", err)
	}
	defer rows.Close()

	var out []model.PublicEvent
	for rows.Next() {
		var p model.PublicEvent
		e := &p.Event
		if err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.StartsAt, &e.Location,
			&e.VenueName, &e.GeneralPrice, &e.VIPPrice, &e.PremiumPrice, &e.MaxCapacity,
			&e.CurrentRegistrations, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&p.OrganizerName,
		); err != nil {
			return nil, fmt.Errorf("scan public event: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Cancel runs the cancellation cascade in one transaction:
//
//  1. lock the event row (blocks concurrent bookings until we finish),
//  2. refund every pending or registered ticket, collecting the holders,
//  3. flip the event to cancelled.
//
// The registration counter is left as is. Either all three steps commit or none do.
func (r *EventRepository) Cancel(ctx context.Context, organizerID, eventID string) (*model.Cancellation, error) {
	result := &model.Cancellation{EventID: eventID}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var status model.EventStatus
		err := tx.QueryRow(ctx,
			`SELECT title, status FROM events
			 WHERE id = $1 AND organizer_id = $2
			 FOR UPDATE`,
			eventID, organizerID,
		).Scan(&result.EventTitle, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}
		if status == model.EventCancelled {
			return ErrInvalidState
		}

		rows, err := tx.Query(ctx,
			`UPDATE tickets SET status = $2
			 WHERE event_id = $1 AND status = ANY($3)
			 RETURNING user_id`,
			eventID, model.StatusRefunded, refundable,
		)
		if err != nil {
			return fmt.Errorf("refund tickets: %w", err)
		}
		userIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("refund tickets: %w", err)
		}
		result.TicketsRefunded = len(userIDs)
		result.Holders = groupHolders(userIDs)

		if _, err := tx.Exec(ctx,
			`UPDATE events SET status = 'cancelled', updated_at = now() WHERE id = $1`,
			eventID,
		); err != nil {
			return fmt.Errorf("mark event cancelled: %w", err)
		}
		return nil
	})
	if err != nil {
		if domainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel event: %w", err)
	}
	return result, nil
}

var refundable = func() []string {
	out := make([]string, len(model.RefundableStatuses))
	for i, s := range model.RefundableStatuses {
		out[i] = string(s)
	}
	return out
}()

// groupHolders folds one user id per refunded ticket into per-user counts,
// keeping first-seen order.
func groupHolders(userIDs []string) []model.RefundedHolder {
	idx := make(map[string]int, len(userIDs))
	var holders []model.RefundedHolder
	for _, id := range userIDs {
		if i, ok := idx[id]; ok {
			holders[i].TicketCount++
			continue
		}
		idx[id] = len(holders)
		holders = append(holders, model.RefundedHolder{UserID: id, TicketCount: 1})
	}
	return holders
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
