package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/go-chi/chi/v5"
)

// EventHandler holds the HTTP handlers for event management.
type EventHandler struct {
	svc EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListEvents handles GET /api/events
// Returns the organizer's events with attendee and revenue aggregates.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context(), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.EventSummary{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// CancelEvent handles DELETE /api/events/{id}
// Cancels the event and refunds every outstanding ticket.
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CancelEvent(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Report handles GET /api/events/{id}/report
// Returns the capacity ledger snapshot with per-type aggregates.
func (h *EventHandler) Report(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if snap.ByType == nil {
		snap.ByType = []model.TypeAggregate{}
	}

	writeJSON(w, http.StatusOK, snap)
}

// SendReminder handles POST /api/events/{id}/reminder
func (h *EventHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SendReminder(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"attendees": n})
}

// BrowseEvents handles GET /api/customer-events
// Optional query parameters: category, location.
func (h *EventHandler) BrowseEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.svc.BrowseEvents(r.Context(), model.EventFilter{
		Category: q.Get("category"),
		Location: q.Get("location"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if events == nil {
		events = []model.PublicEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}
