package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookOne(t *testing.T, f *fixture, eventID string) *model.Ticket {
	t.Helper()
	b, err := f.tickets.Book(context.Background(), attendee(), model.BookTicketRequest{EventID: eventID})
	require.NoError(t, err)
	return b.Ticket
}

func TestAccept_LeavesLedgerAlone(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	tk := bookOne(t, f, event.ID)

	d, err := f.tickets.Accept(context.Background(), org, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, d.PriorStatus)
	assert.Equal(t, model.StatusRegistered, d.Status)
	assert.Equal(t, 1, f.db.event(event.ID).CurrentRegistrations)

	accepted := f.activity.ofType(model.ActivityRegistrationAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, org.UserID, accepted[0].UserID)
	assert.Equal(t, "Accepted registration for Go Meetup", accepted[0].Description)
}

func TestReject_AfterAcceptReleasesSeat(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	tk := bookOne(t, f, event.ID)

	_, err := f.tickets.Accept(context.Background(), org, tk.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.db.event(event.ID).CurrentRegistrations)

	d, err := f.tickets.Reject(context.Background(), org, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRegistered, d.PriorStatus)
	assert.Equal(t, 0, f.db.event(event.ID).CurrentRegistrations)

	// rejecting again is not a legal transition and must not decrement twice
	_, err = f.tickets.Reject(context.Background(), org, tk.ID)
	require.ErrorIs(t, err, repository.ErrInvalidState)
	assert.Equal(t, 0, f.db.event(event.ID).CurrentRegistrations)
}

func TestReject_PendingKeepsSeatTaken(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	tk := bookOne(t, f, event.ID)

	_, err := f.tickets.Reject(context.Background(), org, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.db.event(event.ID).CurrentRegistrations)
}

func TestAccept_IllegalTransitions(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	tk := bookOne(t, f, event.ID)

	_, err := f.tickets.Reject(context.Background(), org, tk.ID)
	require.NoError(t, err)
	_, err = f.tickets.Accept(context.Background(), org, tk.ID)
	require.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestDecide_Authorization(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	tk := bookOne(t, f, event.ID)

	_, err := f.tickets.Accept(context.Background(), attendee(), tk.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// another organizer's ticket looks like it does not exist
	_, err = f.tickets.Accept(context.Background(), organizer(), tk.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.tickets.Accept(context.Background(), org, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestListRegistrations_Limit(t *testing.T) {
	f := newFixture()
	org := organizer()
	event := f.db.addEvent(org.UserID, 10)
	for range 3 {
		bookOne(t, f, event.ID)
	}

	regs, err := f.tickets.ListRegistrations(context.Background(), org, 0)
	require.NoError(t, err)
	assert.Len(t, regs, 3)

	regs, err = f.tickets.ListRegistrations(context.Background(), org, 2)
	require.NoError(t, err)
	assert.Len(t, regs, 2)

	_, err = f.tickets.ListRegistrations(context.Background(), attendee(), 10)
	require.ErrorIs(t, err, ErrForbidden)
}
