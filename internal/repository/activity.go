package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepository appends and reads activity records. Records are never
// updated or deleted.
type ActivityRepository struct {
	db *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one activity record.
func (r *ActivityRepository) Append(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO activity (id, user_id, event_id, ticket_id, activity_type, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.EventID, a.TicketID, a.Type, a.Description, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Feed returns the most recent activity relevant to the caller: activity on
// their events for organizers, their own records for everyone else.
func (r *ActivityRepository) Feed(ctx context.Context, who model.Identity, limit int) ([]model.Activity, error) {
	query := `SELECT id, user_id, event_id, ticket_id, activity_type, description, created_at
		 FROM activity
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`
	if who.IsOrganizer() {
		query = `SELECT a.id, a.user_id, a.event_id, a.ticket_id, a.activity_type, a.description, a.created_at
		 FROM activity a
		 JOIN events e ON e.id = a.event_id
		 WHERE e.organizer_id = $1
		 ORDER BY a.created_at DESC
		 LIMIT $2`
	}

	rows, err := r.db.Query(ctx, query, who.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	feed, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Activity])
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return feed, nil
}
