package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRefPattern = regexp.MustCompile(`^EVT-[A-Z0-9]{8}$`)

func TestNewBookingReference(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		ref := NewBookingReference()
		assert.Regexp(t, bookingRefPattern, ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 95)
}

func TestBook_Success(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	user := attendee()

	booking, err := f.tickets.Book(context.Background(), user, model.BookTicketRequest{
		EventID:    event.ID,
		TicketType: "vip",
	})
	require.NoError(t, err)

	tk := booking.Ticket
	assert.Equal(t, model.StatusPending, tk.Status)
	assert.Equal(t, model.TicketVIP, tk.Type)
	assert.Equal(t, "120", tk.PricePaid.String())
	assert.Regexp(t, bookingRefPattern, tk.BookingReference)
	assert.Equal(t, user.Name, tk.CustomerName)
	assert.Equal(t, user.Email, tk.CustomerEmail)
	assert.Equal(t, 1, f.db.event(event.ID).CurrentRegistrations)

	booked := f.activity.ofType(model.ActivityTicketBooked)
	require.Len(t, booked, 1)
	assert.Equal(t, user.UserID, booked[0].UserID)
	assert.Equal(t, `Booked vip ticket for "Go Meetup" - $120.00`, booked[0].Description)
	require.NotNil(t, booked[0].TicketID)
	assert.Equal(t, tk.ID, *booked[0].TicketID)
}

func TestBook_UnknownTypeFallsBackToGeneral(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)

	booking, err := f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{
		EventID:    event.ID,
		TicketType: "platinum",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketGeneral, booking.Ticket.Type)
	assert.True(t, event.GeneralPrice.Equal(booking.Ticket.PricePaid))
}

func TestBook_EventFull(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 1)

	_, err := f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: event.ID})
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.BookingRejections.WithLabelValues("full"))
	_, err = f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: event.ID})
	require.ErrorIs(t, err, repository.ErrEventFull)

	assert.Equal(t, 1, f.db.event(event.ID).CurrentRegistrations)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BookingRejections.WithLabelValues("full")))
	assert.Len(t, f.activity.ofType(model.ActivityTicketBooked), 1)
}

func TestBook_Duplicate(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)
	user := attendee()
	req := model.BookTicketRequest{EventID: event.ID, TicketType: "general"}

	_, err := f.tickets.Book(context.Background(), user, req)
	require.NoError(t, err)
	_, err = f.tickets.Book(context.Background(), user, req)
	require.ErrorIs(t, err, repository.ErrDuplicateBooking)

	// a different tier is a different booking
	req.TicketType = "premium"
	_, err = f.tickets.Book(context.Background(), user, req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.db.event(event.ID).CurrentRegistrations)
}

func TestBook_CancelledEventIsNotFound(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	_, err := f.events.CancelEvent(context.Background(), org, event.ID)
	require.NoError(t, err)

	_, err = f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: event.ID})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBook_ValidationBeforePersistence(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		req  model.BookTicketRequest
		msg  string
	}{
		{"missing event", model.BookTicketRequest{}, "event_id is required"},
		{"malformed event", model.BookTicketRequest{EventID: "42"}, "event_id is not a valid id"},
		{"whitespace event", model.BookTicketRequest{EventID: "   "}, "event_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.Book(context.Background(), attendee(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Zero(t, f.db.calls)
}

func TestBook_PersistenceFailureIsWrapped(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)
	f.db.failNext = errStorage

	_, err := f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: event.ID})
	require.ErrorIs(t, err, errStorage)
	assert.Contains(t, err.Error(), "book ticket")
	assert.Zero(t, f.activity.count())
}

func TestBook_AuditFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)
	f.activity.failErr = errStorage

	before := testutil.ToFloat64(metrics.AuditWriteFailures.WithLabelValues(string(model.ActivityTicketBooked)))
	booking, err := f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.Ticket.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuditWriteFailures.WithLabelValues(string(model.ActivityTicketBooked))))
}

func TestBook_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 5)

	const n = 40
	results := make(chan model.BookingResult, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := attendee()
			_, err := f.tickets.Book(context.Background(), user, model.BookTicketRequest{EventID: event.ID})
			results <- model.BookingResult{UserID: fmt.Sprint(i), Success: err == nil, Error: err}
		}()
	}
	wg.Wait()
	close(results)

	var ok, full int
	for r := range results {
		if r.Success {
			ok++
		} else if errors.Is(r.Error, repository.ErrEventFull) {
			full++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, n-5, full)
	assert.Equal(t, 5, f.db.event(event.ID).CurrentRegistrations)
}

func TestTicketQRCode(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)
	user := attendee()
	booking, err := f.tickets.Book(context.Background(), user, model.BookTicketRequest{EventID: event.ID})
	require.NoError(t, err)

	png, err := f.tickets.TicketQRCode(context.Background(), user, booking.Ticket.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = f.tickets.TicketQRCode(context.Background(), attendee(), booking.Ticket.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.tickets.TicketQRCode(context.Background(), user, "nope")
	require.ErrorIs(t, err, ErrValidation)
}

func TestNotifications(t *testing.T) {
	f := newFixture()
	event := f.db.addEvent(organizer().UserID, 10)
	user := attendee()
	_, err := f.tickets.Book(context.Background(), user, model.BookTicketRequest{EventID: event.ID})
	require.NoError(t, err)

	feed, err := f.tickets.Notifications(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, model.ActivityTicketBooked, feed[0].Type)

	mine, err := f.tickets.ListMyTickets(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go Meetup", mine[0].EventTitle)
}
