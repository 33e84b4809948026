package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/audit"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memDB is an in-memory stand-in for the repository layer. A single mutex
// plays the role of the event row lock.
type memDB struct {
	mu       sync.Mutex
	events   map[string]*model.Event
	tickets  map[string]*model.Ticket
	calls    int
	failNext error
}

func newMemDB() *memDB {
	return &memDB{events: map[string]*model.Event{}, tickets: map[string]*model.Ticket{}}
}

func (m *memDB) addEvent(organizerID string, capacity int) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &model.Event{
		ID:           uuid.NewString(),
		OrganizerID:  organizerID,
		Title:        "Go Meetup",
		Category:     "networking",
		StartsAt:     time.Now().Add(24 * time.Hour),
		Location:     "Bengaluru",
		GeneralPrice: decimal.RequireFromString("50.00"),
		VIPPrice:     decimal.RequireFromString("120.00"),
		PremiumPrice: decimal.RequireFromString("80.00"),
		MaxCapacity:  capacity,
		Status:       model.EventActive,
	}
	m.events[e.ID] = e
	return e
}

func (m *memDB) event(id string) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.events[id]
}

func (m *memDB) fail() error {
	m.calls++
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	return nil
}

// ─── TicketStore ──────────────────────────────────────────────────────────────

func (m *memDB) Book(_ context.Context, p model.BookingParams) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	e, ok := m.events[p.EventID]
	if !ok || e.Status != model.EventActive {
		return nil, repository.ErrNotFound
	}
	if e.IsFull() {
		return nil, repository.ErrEventFull
	}
	for _, t := range m.tickets {
		if t.UserID == p.UserID && t.EventID == p.EventID && t.Type == p.Type {
			return nil, repository.ErrDuplicateBooking
		}
	}
	t := &model.Ticket{
		ID:               uuid.NewString(),
		EventID:          p.EventID,
		UserID:           p.UserID,
		Type:             p.Type,
		PricePaid:        e.PriceFor(p.Type),
		BookingReference: p.BookingReference,
		SpecialRequests:  p.SpecialRequests,
		CustomerName:     p.CustomerName,
		CustomerEmail:    p.CustomerEmail,
		Status:           model.StatusPending,
		CreatedAt:        time.Now(),
	}
	m.tickets[t.ID] = t
	e.CurrentRegistrations++
	return &model.Booking{Ticket: t, EventTitle: e.Title}, nil
}

func (m *memDB) Decide(_ context.Context, organizerID, ticketID string, to model.TicketStatus) (*model.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	t, ok := m.tickets[ticketID]
	if !ok || m.events[t.EventID].OrganizerID != organizerID {
		return nil, repository.ErrNotFound
	}
	if !t.Status.CanTransitionTo(to) {
		return nil, repository.ErrInvalidState
	}
	prior := t.Status
	t.Status = to
	e := m.events[t.EventID]
	if prior.ReleasesCapacity(to) {
		e.CurrentRegistrations = max(e.CurrentRegistrations-1, 0)
	}
	return &model.Decision{TicketID: t.ID, EventID: e.ID, EventTitle: e.Title, PriorStatus: prior, Status: to}, nil
}

func (m *memDB) GetForUser(_ context.Context, userID, ticketID string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memDB) ListByUser(_ context.Context, userID string) ([]model.UserTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.UserTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, model.UserTicket{Ticket: *t, EventTitle: m.events[t.EventID].Title})
		}
	}
	return out, nil
}

func (m *memDB) ListForOrganizer(_ context.Context, organizerID string, limit int) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Registration{}
	for _, t := range m.tickets {
		if len(out) == limit {
			break
		}
		if m.events[t.EventID].OrganizerID == organizerID {
			out = append(out, model.Registration{TicketID: t.ID, EventID: t.EventID, Status: t.Status})
		}
	}
	return out, nil
}

func (m *memDB) RegisteredAttendees(_ context.Context, eventID string) ([]model.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Attendee
	for _, t := range m.tickets {
		if t.EventID == eventID && t.Status == model.StatusRegistered {
			out = append(out, model.Attendee{UserID: t.UserID, TicketID: t.ID})
		}
	}
	return out, nil
}

// ─── EventStore ───────────────────────────────────────────────────────────────

func (m *memDB) Create(_ context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	e := &model.Event{
		ID:           uuid.NewString(),
		OrganizerID:  organizerID,
		Title:        req.Title,
		Category:     req.Category,
		StartsAt:     req.StartsAt,
		Location:     req.Location,
		VenueName:    req.VenueName,
		GeneralPrice: req.GeneralPrice,
		VIPPrice:     req.VIPPrice,
		PremiumPrice: req.PremiumPrice,
		MaxCapacity:  req.MaxCapacity,
		Status:       model.EventActive,
	}
	m.events[e.ID] = e
	cp := *e
	return &cp, nil
}

func (m *memDB) Update(_ context.Context, organizerID, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	e, ok := m.events[eventID]
	if !ok || e.OrganizerID != organizerID {
		return nil, repository.ErrNotFound
	}
	if e.Status != model.EventActive || req.MaxCapacity < e.CurrentRegistrations {
		return nil, repository.ErrInvalidState
	}
	e.Title = req.Title
	e.MaxCapacity = req.MaxCapacity
	cp := *e
	return &cp, nil
}

func (m *memDB) GetOwned(_ context.Context, organizerID, eventID string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.OrganizerID != organizerID {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memDB) ListByOrganizer(_ context.Context, organizerID string) ([]model.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EventSummary
	for _, e := range m.events {
		if e.OrganizerID == organizerID {
			out = append(out, model.EventSummary{Event: *e})
		}
	}
	return out, nil
}

func (m *memDB) ListActive(_ context.Context, filter model.EventFilter) ([]model.PublicEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PublicEvent
	for _, e := range m.events {
		if e.Status == model.EventActive && (filter.Category == "" || e.Category == filter.Category) {
			out = append(out, model.PublicEvent{Event: *e})
		}
	}
	return out, nil
}

func (m *memDB) Cancel(_ context.Context, organizerID, eventID string) (*model.Cancellation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	e, ok := m.events[eventID]
	if !ok || e.OrganizerID != organizerID {
		return nil, repository.ErrNotFound
	}
	if e.Status == model.EventCancelled {
		return nil, repository.ErrInvalidState
	}
	res := &model.Cancellation{EventID: e.ID, EventTitle: e.Title}
	perUser := map[string]int{}
	var order []string
	for _, t := range m.tickets {
		if t.EventID != eventID || !t.Status.Refundable() {
			continue
		}
		t.Status = model.StatusRefunded
		res.TicketsRefunded++
		if perUser[t.UserID] == 0 {
			order = append(order, t.UserID)
		}
		perUser[t.UserID]++
	}
	for _, u := range order {
		res.Holders = append(res.Holders, model.RefundedHolder{UserID: u, TicketCount: perUser[u]})
	}
	e.Status = model.EventCancelled
	return res, nil
}

// ─── LedgerReader ─────────────────────────────────────────────────────────────

func (m *memDB) Snapshot(_ context.Context, eventID string) (*model.LedgerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	snap := &model.LedgerSnapshot{
		EventID:              e.ID,
		Status:               e.Status,
		MaxCapacity:          e.MaxCapacity,
		CurrentRegistrations: e.CurrentRegistrations,
		Available:            e.Remaining(),
		ByType:               []model.TypeAggregate{},
	}
	idx := map[model.TicketType]int{}
	for _, t := range m.tickets {
		if t.EventID != eventID || t.Status != model.StatusRegistered {
			continue
		}
		i, ok := idx[t.Type]
		if !ok {
			i = len(snap.ByType)
			idx[t.Type] = i
			snap.ByType = append(snap.ByType, model.TypeAggregate{Type: t.Type})
		}
		snap.ByType[i].Count++
		snap.ByType[i].Revenue = snap.ByType[i].Revenue.Add(t.PricePaid)
	}
	return snap, nil
}

// ─── Activity ─────────────────────────────────────────────────────────────────

type memActivity struct {
	mu      sync.Mutex
	records []model.Activity
	failErr error
}

func (s *memActivity) Append(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.records = append(s.records, a)
	return nil
}

func (s *memActivity) Feed(_ context.Context, who model.Identity, limit int) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Activity
	for _, a := range s.records {
		if a.UserID == who.UserID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memActivity) ofType(t model.ActivityType) []model.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Activity
	for _, a := range s.records {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (s *memActivity) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ─── Fixture ──────────────────────────────────────────────────────────────────

var errStorage = errors.New("connection reset")

type fixture struct {
	db       *memDB
	activity *memActivity
	tickets  *TicketService
	events   *EventService
}

func newFixture() *fixture {
	db := newMemDB()
	act := &memActivity{}
	rec := audit.NewRecorder(act)
	return &fixture{
		db:       db,
		activity: act,
		tickets:  NewTicketService(db, act, rec),
		events:   NewEventService(db, db, db, rec),
	}
}

func organizer() model.Identity {
	return model.Identity{UserID: uuid.NewString(), Role: model.RoleOrganizer, Name: "Olga Organizer", Email: "olga@example.com"}
}

func attendee() model.Identity {
	return model.Identity{UserID: uuid.NewString(), Role: model.RoleAttendee, Name: "Ana Attendee", Email: "ana@example.com"}
}
