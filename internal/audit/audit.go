// Package audit records activity entries after the transactional work they
// describe has committed. Writes are best effort: a failure is logged and
// counted, never returned to the operation that produced it.
package audit

import (
	"context"
	"sync"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"golang.org/x/sync/errgroup"
)

// Store appends activity records.
type Store interface {
	Append(ctx context.Context, a model.Activity) error
}

// maxConcurrentWrites bounds the fan-out of RecordAll.
const maxConcurrentWrites = 8

// Recorder writes activity records to a Store.
type Recorder struct {
	store Store
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record writes a single activity record, logging any failure.
func (r *Recorder) Record(ctx context.Context, a model.Activity) {
	trailFrom(ctx).add(a)
	if err := r.store.Append(context.WithoutCancel(ctx), a); err != nil {
		metrics.AuditWriteFailures.WithLabelValues(string(a.Type)).Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("activity_type", string(a.Type)).
			Str("recipient", a.UserID).
			Msg("activity write failed")
	}
}

// RecordAll writes activities concurrently and waits for all of them.
// Failures are handled as in Record.
func (r *Recorder) RecordAll(ctx context.Context, activities []model.Activity) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentWrites)
	for _, a := range activities {
		g.Go(func() error {
			r.Record(ctx, a)
			return nil
		})
	}
	_ = g.Wait()
}

// ─── Request-scoped trail ─────────────────────────────────────────────────────

// Trail collects the activity types recorded while serving one request, for
// the request log line. Each request gets its own Trail via WithTrail.
type Trail struct {
	mu    sync.Mutex
	types []model.ActivityType
}

func (t *Trail) add(a model.Activity) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.types = append(t.types, a.Type)
	t.mu.Unlock()
}

// Types returns the activity types recorded so far.
func (t *Trail) Types() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.types))
	for i, typ := range t.types {
		out[i] = string(typ)
	}
	return out
}

type trailKey struct{}

// WithTrail returns a context carrying a fresh Trail.
func WithTrail(ctx context.Context) (context.Context, *Trail) {
	t := &Trail{}
	return context.WithValue(ctx, trailKey{}, t), t
}

func trailFrom(ctx context.Context) *Trail {
	t, _ := ctx.Value(trailKey{}).(*Trail)
	return t
}
