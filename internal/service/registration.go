package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Accept moves a pending ticket to registered. The seat was already taken at
// booking time, so the ledger does not change.
func (s *TicketService) Accept(ctx context.Context, who model.Identity, ticketID string) (*model.Decision, error) {
	return s.decide(ctx, who, ticketID, model.StatusRegistered)
}

// Reject moves a pending or registered ticket to rejected. Rejecting a
// registered ticket gives its seat back.
func (s *TicketService) Reject(ctx context.Context, who model.Identity, ticketID string) (*model.Decision, error) {
	return s.decide(ctx, who, ticketID, model.StatusRejected)
}

func (s *TicketService) decide(ctx context.Context, who model.Identity, ticketID string, to model.TicketStatus) (*model.Decision, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if err := requireID("ticket id", ticketID); err != nil {
		return nil, err
	}

	d, err := s.tickets.Decide(ctx, who.UserID, ticketID, to)
	if err != nil {
		return nil, err
	}
	metrics.RegistrationTransitions.WithLabelValues(string(d.PriorStatus), string(d.Status)).Inc()

	activity, verb := model.ActivityRegistrationAccepted, "Accepted"
	if to == model.StatusRejected {
		activity, verb = model.ActivityRegistrationRejected, "Rejected"
	}
	s.audit.Record(ctx, model.NewActivity(who.UserID, d.EventID, d.TicketID, activity,
		fmt.Sprintf("%s registration for %s", verb, d.EventTitle)))

	logging.Ctx(ctx).Info().
		Str("ticket_id", d.TicketID).
		Str("from", string(d.PriorStatus)).
		Str("to", string(d.Status)).
		Bool("seat_released", d.PriorStatus.ReleasesCapacity(d.Status)).
		Msg("registration decided")
	return d, nil
}

// ListRegistrations returns recent tickets across the organizer's events.
// limit <= 0 selects the default; larger values are capped.
func (s *TicketService) ListRegistrations(ctx context.Context, who model.Identity, limit int) ([]model.Registration, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRegistrationLimit
	}
	return s.tickets.ListForOrganizer(ctx, who.UserID, min(limit, maxRegistrationLimit))
}
