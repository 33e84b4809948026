// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// Transactional work happens in the repository; services validate input before
// any persistence call, and record activity only after the transaction commits.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrValidation marks missing or malformed input. It is returned before any
// persistence call is attempted.
var ErrValidation = errors.New("validation failed")

// ErrForbidden is returned when the caller's role may not use an operation.
var ErrForbidden = errors.New("forbidden")

// EventStore persists events and runs the cancellation cascade.
type EventStore interface {
	Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, organizerID, eventID string, req model.UpdateEventRequest) (*model.Event, error)
	GetOwned(ctx context.Context, organizerID, eventID string) (*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.EventSummary, error)
	ListActive(ctx context.Context, filter model.EventFilter) ([]model.PublicEvent, error)
	Cancel(ctx context.Context, organizerID, eventID string) (*model.Cancellation, error)
}

// LedgerReader reads capacity snapshots.
type LedgerReader interface {
	Snapshot(ctx context.Context, eventID string) (*model.LedgerSnapshot, error)
}

// TicketStore persists tickets and their transitions.
type TicketStore interface {
	Book(ctx context.Context, p model.BookingParams) (*model.Booking, error)
	Decide(ctx context.Context, organizerID, ticketID string, to model.TicketStatus) (*model.Decision, error)
	GetForUser(ctx context.Context, userID, ticketID string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserTicket, error)
	ListForOrganizer(ctx context.Context, organizerID string, limit int) ([]model.Registration, error)
	RegisteredAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
}

// ActivityFeed reads the notification feed.
type ActivityFeed interface {
	Feed(ctx context.Context, who model.Identity, limit int) ([]model.Activity, error)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct checks v's `validate` tags and returns an ErrValidation-wrapped
// message naming the first offending field.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidation, fe.Field())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", ErrValidation, fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s", ErrValidation, fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of: %s", ErrValidation, fe.Field(), fe.Param())
	case "uuid":
		return fmt.Errorf("%w: %s is not a valid id", ErrValidation, fe.Field())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrValidation, fe.Field())
	}
}

func requireID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, name)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s is not a valid id", ErrValidation, name)
	}
	return nil
}

func requireOrganizer(who model.Identity) error {
	if !who.IsOrganizer() {
		return ErrForbidden
	}
	return nil
}
