package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/audit"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/skip2/go-qrcode"
)

const (
	feedLimit                = 20
	defaultRegistrationLimit = 50
	maxRegistrationLimit     = 200
	qrSize                   = 256
)

// TicketService orchestrates booking, organizer decisions on registrations,
// and the attendee-facing ticket views.
type TicketService struct {
	tickets  TicketStore
	activity ActivityFeed
	audit    *audit.Recorder
	newRef   func() string
}

// NewTicketService constructs a TicketService with its dependencies.
func NewTicketService(tickets TicketStore, activity ActivityFeed, recorder *audit.Recorder) *TicketService {
	return &TicketService{
		tickets:  tickets,
		activity: activity,
		audit:    recorder,
		newRef:   NewBookingReference,
	}
}

// Book validates a booking request and delegates the concurrency-safe booking
// to the repository layer. The customer name and email are copied from the
// caller's identity as it is right now.
//
// An unrecognized ticket type is booked as general at the general price.
func (s *TicketService) Book(ctx context.Context, who model.Identity, req model.BookTicketRequest) (*model.Booking, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	req.SpecialRequests = strings.TrimSpace(req.SpecialRequests)
	if err := validateStruct(req); err != nil {
		metrics.BookingRejections.WithLabelValues("validation").Inc()
		return nil, err
	}

	typ, ok := model.ParseTicketType(req.TicketType)
	if !ok && req.TicketType != "" {
		logging.Ctx(ctx).Warn().
			Str("ticket_type", req.TicketType).
			Msg("unrecognized ticket type, booking as general")
	}

	booking, err := s.tickets.Book(ctx, model.BookingParams{
		EventID:          req.EventID,
		UserID:           who.UserID,
		Type:             typ,
		BookingReference: s.newRef(),
		SpecialRequests:  req.SpecialRequests,
		CustomerName:     who.Name,
		CustomerEmail:    who.Email,
	})
	if err != nil {
		metrics.BookingRejections.WithLabelValues(rejectionReason(err)).Inc()
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrEventFull) ||
			errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, err
		}
		return nil, fmt.Errorf("book ticket: %w", err)
	}

	t := booking.Ticket
	metrics.TicketsBooked.WithLabelValues(string(t.Type)).Inc()
	s.audit.Record(ctx, model.NewActivity(who.UserID, t.EventID, t.ID, model.ActivityTicketBooked,
		fmt.Sprintf("Booked %s ticket for %q - $%s", t.Type, booking.EventTitle, t.PricePaid.StringFixed(2))))

	logging.Ctx(ctx).Info().
		Str("ticket_id", t.ID).
		Str("event_id", t.EventID).
		Str("booking_reference", t.BookingReference).
		Msg("ticket booked")
	return booking, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrEventFull):
		return "full"
	case errors.Is(err, repository.ErrDuplicateBooking):
		return "duplicate"
	default:
		return "error"
	}
}

// ListMyTickets returns every ticket the caller holds.
func (s *TicketService) ListMyTickets(ctx context.Context, who model.Identity) ([]model.UserTicket, error) {
	return s.tickets.ListByUser(ctx, who.UserID)
}

// TicketQRCode renders the booking reference of one of the caller's tickets as a PNG.
func (s *TicketService) TicketQRCode(ctx context.Context, who model.Identity, ticketID string) ([]byte, error) {
	if err := requireID("ticket id", ticketID); err != nil {
		return nil, err
	}
	t, err := s.tickets.GetForUser(ctx, who.UserID, ticketID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(t.BookingReference, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Notifications returns the caller's recent activity feed.
func (s *TicketService) Notifications(ctx context.Context, who model.Identity) ([]model.Activity, error) {
	return s.activity.Feed(ctx, who, feedLimit)
}
