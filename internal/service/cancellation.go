package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// CancelEvent cancels one of the organizer's events. The repository refunds
// every pending and registered ticket and flips the event status in a single
// transaction; activity for the organizer and for each affected user is written
// only after that commits, and its failure does not undo the cancellation.
func (s *EventService) CancelEvent(ctx context.Context, who model.Identity, eventID string) (*model.Cancellation, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if err := requireID("event id", eventID); err != nil {
		return nil, err
	}

	res, err := s.events.Cancel(ctx, who.UserID, eventID)
	if err != nil {
		return nil, err
	}
	metrics.EventsCancelled.Inc()
	metrics.TicketsRefunded.Add(float64(res.TicketsRefunded))

	s.audit.RecordAll(ctx, cancellationActivities(who.UserID, res))

	logging.Ctx(ctx).Info().
		Str("event_id", eventID).
		Int("tickets_refunded", res.TicketsRefunded).
		Int("holders", len(res.Holders)).
		Msg("event cancelled")
	return res, nil
}

// cancellationActivities builds one record for the organizer and one per
// distinct ticket holder.
func cancellationActivities(organizerID string, res *model.Cancellation) []model.Activity {
	out := make([]model.Activity, 0, len(res.Holders)+1)
	out = append(out, model.NewActivity(organizerID, res.EventID, "", model.ActivityEventCancelled,
		fmt.Sprintf("Cancelled event: %s and refunded %d tickets", res.EventTitle, res.TicketsRefunded)))
	for _, h := range res.Holders {
		out = append(out, model.NewActivity(h.UserID, res.EventID, "", model.ActivityTicketRefunded,
			fmt.Sprintf("Your %d ticket(s) for '%s' have been refunded due to event cancellation",
				h.TicketCount, res.EventTitle)))
	}
	return out
}
