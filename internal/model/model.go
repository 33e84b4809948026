// Package model defines the core domain types for the event ticketing system.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus is the lifecycle state of an event. Cancellation is terminal.
type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
)

// Event represents a bookable event created by an organizer.
type Event struct {
	ID                   string          `json:"id"`
	OrganizerID          string          `json:"organizer_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	StartsAt             time.Time       `json:"starts_at"`
	Location             string          `json:"location"`
	VenueName            string          `json:"venue_name"`
	GeneralPrice         decimal.Decimal `json:"general_price"`
	VIPPrice             decimal.Decimal `json:"vip_price"`
	PremiumPrice         decimal.Decimal `json:"premium_price"`
	MaxCapacity          int             `json:"max_capacity"`
	CurrentRegistrations int             `json:"current_registrations"`
	Status               EventStatus     `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Remaining returns the number of available seats. A cancelled event has none,
// whatever its stale counter says.
func (e *Event) Remaining() int {
	if e.Status != EventActive {
		return 0
	}
	return max(e.MaxCapacity-e.CurrentRegistrations, 0)
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.CurrentRegistrations >= e.MaxCapacity
}

// PriceFor resolves the price a ticket of type t pays for this event.
func (e *Event) PriceFor(t TicketType) decimal.Decimal {
	switch t {
	case TicketVIP:
		return e.VIPPrice
	case TicketPremium:
		return e.PremiumPrice
	default:
		return e.GeneralPrice
	}
}

// EventSummary is an organizer dashboard row: the event plus registered-ticket aggregates.
type EventSummary struct {
	Event
	Revenue       decimal.Decimal    `json:"revenue"`
	Registrations map[TicketType]int `json:"registrations"`
}

// PublicEvent is an active event as customers browse it.
type PublicEvent struct {
	Event
	OrganizerName string `json:"organizer_name"`
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Category string
	Location string
}

// Ticket is a single booking of one ticket type for one event by one user.
type Ticket struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	UserID           string          `json:"user_id"`
	Type             TicketType      `json:"ticket_type"`
	PricePaid        decimal.Decimal `json:"price_paid"`
	BookingReference string          `json:"booking_reference"`
	SpecialRequests  string          `json:"special_requests,omitempty"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	Status           TicketStatus    `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// UserTicket is a ticket joined with the event details an attendee sees.
type UserTicket struct {
	Ticket
	EventTitle    string    `json:"event_title"`
	EventStartsAt time.Time `json:"event_starts_at"`
	EventLocation string    `json:"event_location"`
	VenueName     string    `json:"venue_name"`
}

// Registration is a ticket as an organizer sees it in the registrations list.
type Registration struct {
	TicketID      string          `json:"id"`
	EventID       string          `json:"event_id"`
	EventTitle    string          `json:"event_title"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Type          TicketType      `json:"ticket_type"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        TicketStatus    `json:"status"`
	PurchasedAt   time.Time       `json:"purchase_date"`
}

// Attendee is a registered ticket holder, used for reminders.
type Attendee struct {
	UserID   string
	TicketID string
}

// Booking is the outcome of a successful booking transaction.
type Booking struct {
	Ticket     *Ticket `json:"ticket"`
	EventTitle string  `json:"event_title"`
}

// Decision is the outcome of an accept or reject transition.
type Decision struct {
	TicketID    string       `json:"ticket_id"`
	EventID     string       `json:"event_id"`
	EventTitle  string       `json:"event_title"`
	PriorStatus TicketStatus `json:"previous_status"`
	Status      TicketStatus `json:"status"`
}

// RefundedHolder aggregates the tickets one user lost to a cancellation.
type RefundedHolder struct {
	UserID      string
	TicketCount int
}

// Cancellation is the outcome of an event cancellation cascade.
type Cancellation struct {
	EventID         string           `json:"event_id"`
	EventTitle      string           `json:"-"`
	TicketsRefunded int              `json:"tickets_refunded"`
	Holders         []RefundedHolder `json:"-"`
}

// TypeAggregate is the count and summed price of registered tickets of one type.
type TypeAggregate struct {
	Type    TicketType      `json:"ticket_type"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// LedgerSnapshot is the capacity view of one event.
type LedgerSnapshot struct {
	EventID              string          `json:"event_id"`
	Status               EventStatus     `json:"status"`
	MaxCapacity          int             `json:"max_capacity"`
	CurrentRegistrations int             `json:"current_registrations"`
	Available            int             `json:"available"`
	ByType               []TypeAggregate `json:"ticket_stats"`
}

// ─── Request payloads ─────────────────────────────────────────────────────────

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Category     string          `json:"category" validate:"omitempty,oneof=conference music networking workshop sports exhibition seminar festival other"`
	StartsAt     time.Time       `json:"starts_at" validate:"required"`
	Location     string          `json:"location" validate:"required,max=255"`
	VenueName    string          `json:"venue_name" validate:"max=255"`
	GeneralPrice decimal.Decimal `json:"general_price"`
	VIPPrice     decimal.Decimal `json:"vip_price"`
	PremiumPrice decimal.Decimal `json:"premium_price"`
	MaxCapacity  int             `json:"max_capacity" validate:"min=1,max=100000"`
}

// UpdateEventRequest carries the full replacement of an event's editable fields.
type UpdateEventRequest = CreateEventRequest

// BookTicketRequest is the payload for booking a ticket.
type BookTicketRequest struct {
	EventID         string `json:"event_id" validate:"required,uuid"`
	TicketType      string `json:"ticket_type"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

// BookingParams is everything the booking transaction needs, resolved by the service.
type BookingParams struct {
	EventID          string
	UserID           string
	Type             TicketType
	BookingReference string
	SpecialRequests  string
	CustomerName     string
	CustomerEmail    string
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BookingResult summarises the outcome of a single booking attempt.
// Used in the concurrent test harness.
type BookingResult struct {
	UserID  string
	Success bool
	Error   error
}
