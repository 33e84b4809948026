package model

import "time"

// ActivityType classifies an activity record for the audit trail and the
// notification feed.
type ActivityType string

const (
	ActivityEventCreated         ActivityType = "event_created"
	ActivityEventUpdated         ActivityType = "event_updated"
	ActivityEventCancelled       ActivityType = "event_cancelled"
	ActivityTicketBooked         ActivityType = "ticket_booked"
	ActivityTicketRefunded       ActivityType = "ticket_refunded"
	ActivityRegistrationAccepted ActivityType = "registration_accepted"
	ActivityRegistrationRejected ActivityType = "registration_rejected"
	ActivityReminderSent         ActivityType = "reminder_sent"
	ActivityReminderReceived     ActivityType = "reminder_received"
)

// Activity is an immutable, append-only audit entry. UserID is the recipient.
type Activity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	EventID     *string      `json:"event_id,omitempty"`
	TicketID    *string      `json:"ticket_id,omitempty"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewActivity builds an activity record. Empty eventID/ticketID are stored as NULL.
func NewActivity(userID, eventID, ticketID string, t ActivityType, description string) Activity {
	a := Activity{UserID: userID, Type: t, Description: description}
	if eventID != "" {
		a.EventID = &eventID
	}
	if ticketID != "" {
		a.TicketID = &ticketID
	}
	return a
}
