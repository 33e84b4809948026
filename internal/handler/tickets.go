package handler

import (
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/go-chi/chi/v5"
)

// TicketHandler holds the HTTP handlers for booking, registrations, and the
// attendee's own tickets and notifications.
type TicketHandler struct {
	svc TicketService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// Book handles POST /api/tickets
// Performs a concurrency-safe booking for the calling user.
func (h *TicketHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req model.BookTicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.svc.Book(r.Context(), caller(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// ListMine handles GET /api/tickets
func (h *TicketHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListMyTickets(r.Context(), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if tickets == nil {
		tickets = []model.UserTicket{}
	}

	writeJSON(w, http.StatusOK, tickets)
}

// QRCode handles GET /api/tickets/{id}/qr
func (h *TicketHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.svc.TicketQRCode(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Notifications handles GET /api/notifications
func (h *TicketHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.Notifications(r.Context(), caller(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if feed == nil {
		feed = []model.Activity{}
	}

	writeJSON(w, http.StatusOK, feed)
}

// ListRegistrations handles GET /api/registrations
// Optional query parameter: limit.
func (h *TicketHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	regs, err := h.svc.ListRegistrations(r.Context(), caller(r), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// Accept handles PUT /api/registrations/{id}/accept
func (h *TicketHandler) Accept(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Accept(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Reject handles PUT /api/registrations/{id}/reject
func (h *TicketHandler) Reject(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Reject(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}
