package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/audit"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// AttendeeLister lists the registered ticket holders of an event.
type AttendeeLister interface {
	RegisteredAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events    EventStore
	ledger    LedgerReader
	attendees AttendeeLister
	audit     *audit.Recorder
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, ledger LedgerReader, attendees AttendeeLister, recorder *audit.Recorder) *EventService {
	return &EventService{events: events, ledger: ledger, attendees: attendees, audit: recorder}
}

// normalizeEvent trims and defaults an event payload, then validates it.
func normalizeEvent(req *model.CreateEventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	req.VenueName = strings.TrimSpace(req.VenueName)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Category == "" {
		req.Category = "other"
	}
	if req.VenueName == "" {
		req.VenueName = req.Location
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	for name, p := range map[string]interface{ IsNegative() bool }{
		"general_price": req.GeneralPrice,
		"vip_price":     req.VIPPrice,
		"premium_price": req.PremiumPrice,
	} {
		if p.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, name)
		}
	}
	return nil
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, who model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if err := normalizeEvent(&req); err != nil {
		return nil, err
	}
	event, err := s.events.Create(ctx, who.UserID, req)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, model.NewActivity(who.UserID, event.ID, "", model.ActivityEventCreated,
		"Created event: "+event.Title))
	return event, nil
}

// UpdateEvent replaces an active event's editable fields. Tickets keep the
// price they were booked at.
func (s *EventService) UpdateEvent(ctx context.Context, who model.Identity, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if err := requireID("event id", eventID); err != nil {
		return nil, err
	}
	if err := normalizeEvent(&req); err != nil {
		return nil, err
	}
	event, err := s.events.Update(ctx, who.UserID, eventID, req)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, model.NewActivity(who.UserID, event.ID, "", model.ActivityEventUpdated,
		"Updated event: "+event.Title))
	return event, nil
}

// GetEvent returns one of the organizer's events.
func (s *EventService) GetEvent(ctx context.Context, who model.Identity, eventID string) (*model.Event, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	if err := requireID("event id", eventID); err != nil {
		return nil, err
	}
	return s.events.GetOwned(ctx, who.UserID, eventID)
}

// ListEvents returns the organizer's events with dashboard aggregates.
func (s *EventService) ListEvents(ctx context.Context, who model.Identity) ([]model.EventSummary, error) {
	if err := requireOrganizer(who); err != nil {
		return nil, err
	}
	return s.events.ListByOrganizer(ctx, who.UserID)
}

// BrowseEvents returns active events for customers.
func (s *EventService) BrowseEvents(ctx context.Context, filter model.EventFilter) ([]model.PublicEvent, error) {
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	filter.Location = strings.TrimSpace(filter.Location)
	return s.events.ListActive(ctx, filter)
}

// Snapshot returns the capacity ledger of one of the organizer's events.
func (s *EventService) Snapshot(ctx context.Context, who model.Identity, eventID string) (*model.LedgerSnapshot, error) {
	if _, err := s.GetEvent(ctx, who, eventID); err != nil {
		return nil, err
	}
	return s.ledger.Snapshot(ctx, eventID)
}

// SendReminder notifies every registered ticket holder of an event and returns
// how many reminders went out.
func (s *EventService) SendReminder(ctx context.Context, who model.Identity, eventID string) (int, error) {
	event, err := s.GetEvent(ctx, who, eventID)
	if err != nil {
		return 0, err
	}
	attendees, err := s.attendees.RegisteredAttendees(ctx, eventID)
	if err != nil {
		return 0, err
	}

	activities := make([]model.Activity, 0, len(attendees)+1)
	for _, a := range attendees {
		activities = append(activities, model.NewActivity(a.UserID, eventID, a.TicketID,
			model.ActivityReminderReceived, "Received reminder for event: "+event.Title))
	}
	activities = append(activities, model.NewActivity(who.UserID, eventID, "", model.ActivityReminderSent,
		fmt.Sprintf("Sent reminder to %d attendees for %s", len(attendees), event.Title)))
	s.audit.RecordAll(ctx, activities)

	logging.Ctx(ctx).Info().Str("event_id", eventID).Int("attendees", len(attendees)).Msg("reminder sent")
	return len(attendees), nil
}
