package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT id, name, start_date, end_date FROM events WHERE id = $1`

	var e domain.Event
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.StartDate, &e.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}
