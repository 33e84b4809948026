package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository resolves access tokens to identities. Account management
// lives outside this service; only lookups happen here.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Identity returns the identity for a user id, or ErrNotFound. Malformed ids
// are treated as unknown users.
func (r *UserRepository) Identity(ctx context.Context, userID string) (model.Identity, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return model.Identity{}, ErrNotFound
	}

	id := model.Identity{UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT first_name || ' ' || last_name, email, role FROM users WHERE id = $1`,
		userID,
	).Scan(&id.Name, &id.Email, &id.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("get user: %w", err)
	}
	return id, nil
}
