package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type memStore struct {
	mu      sync.Mutex
	written []model.Activity
	failFor model.ActivityType
}

func (s *memStore) Append(ctx context.Context, a model.Activity) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if a.Type == s.failFor {
		return errors.New("db down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, a)
	return nil
}

func TestRecorder_Record(t *testing.T) {
	store := &memStore{}
	rec := NewRecorder(store)

	ctx, trail := WithTrail(context.Background())
	rec.Record(ctx, model.NewActivity("u1", "e1", "t1", model.ActivityTicketBooked, "booked"))

	assert.Len(t, store.written, 1)
	assert.Equal(t, []string{"ticket_booked"}, trail.Types())
}

func TestRecorder_RecordSurvivesCancelledContext(t *testing.T) {
	store := &memStore{}
	rec := NewRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, model.NewActivity("u1", "", "", model.ActivityEventCancelled, "gone"))

	assert.Len(t, store.written, 1)
}

func TestRecorder_FailureIsSwallowedAndCounted(t *testing.T) {
	store := &memStore{failFor: model.ActivityReminderSent}
	rec := NewRecorder(store)
	counter := metrics.AuditWriteFailures.WithLabelValues(string(model.ActivityReminderSent))
	before := testutil.ToFloat64(counter)

	rec.Record(context.Background(), model.NewActivity("u1", "", "", model.ActivityReminderSent, "x"))

	assert.Empty(t, store.written)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecorder_RecordAll(t *testing.T) {
	store := &memStore{failFor: model.ActivityEventCancelled}
	rec := NewRecorder(store)

	var batch []model.Activity
	for range 20 {
		batch = append(batch, model.NewActivity("u", "e", "", model.ActivityTicketRefunded, "refunded"))
	}
	batch = append(batch, model.NewActivity("org", "e", "", model.ActivityEventCancelled, "cancelled"))

	ctx, trail := WithTrail(context.Background())
	rec.RecordAll(ctx, batch)

	assert.Len(t, store.written, 20)
	assert.Len(t, trail.Types(), 21)
}

func TestTrail_NilSafe(t *testing.T) {
	var trail *Trail
	trail.add(model.Activity{Type: model.ActivityTicketBooked})
	assert.Nil(t, trail.Types())
	assert.Nil(t, trailFrom(context.Background()))
}
