// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/goccy/go-json"
)

// EventService is the organizer- and customer-facing event API.
type EventService interface {
	CreateEvent(ctx context.Context, who model.Identity, req model.CreateEventRequest) (*model.Event, error)
	UpdateEvent(ctx context.Context, who model.Identity, eventID string, req model.UpdateEventRequest) (*model.Event, error)
	GetEvent(ctx context.Context, who model.Identity, eventID string) (*model.Event, error)
	ListEvents(ctx context.Context, who model.Identity) ([]model.EventSummary, error)
	BrowseEvents(ctx context.Context, filter model.EventFilter) ([]model.PublicEvent, error)
	Snapshot(ctx context.Context, who model.Identity, eventID string) (*model.LedgerSnapshot, error)
	SendReminder(ctx context.Context, who model.Identity, eventID string) (int, error)
	CancelEvent(ctx context.Context, who model.Identity, eventID string) (*model.Cancellation, error)
}

// TicketService is the booking and registration API.
type TicketService interface {
	Book(ctx context.Context, who model.Identity, req model.BookTicketRequest) (*model.Booking, error)
	ListMyTickets(ctx context.Context, who model.Identity) ([]model.UserTicket, error)
	TicketQRCode(ctx context.Context, who model.Identity, ticketID string) ([]byte, error)
	Notifications(ctx context.Context, who model.Identity) ([]model.Activity, error)
	Accept(ctx context.Context, who model.Identity, ticketID string) (*model.Decision, error)
	Reject(ctx context.Context, who model.Identity, ticketID string) (*model.Decision, error)
	ListRegistrations(ctx context.Context, who model.Identity, limit int) ([]model.Registration, error)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and repository errors onto HTTP responses.
// Anything unrecognized is a persistence failure: logged, and reported as a
// generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "organizer access required")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusConflict, "event is fully booked")
	case errors.Is(err, repository.ErrDuplicateBooking):
		writeError(w, http.StatusConflict, "you already hold a ticket of this type for this event")
	case errors.Is(err, repository.ErrInvalidState):
		writeError(w, http.StatusConflict, "not allowed in the current state")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// caller returns the identity placed on the request by the Identity middleware.
func caller(r *http.Request) model.Identity {
	who, _ := model.IdentityFrom(r.Context())
	return who
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
