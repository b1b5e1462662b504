package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// EventRepository implements the event.Repository interface for PostgreSQL
type EventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(logger *slog.Logger, db *persistence.PostgresDB) event.Repository {
	return &EventRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *EventRepository) WithTx(tx pgx.Tx) event.Repository {
	return &EventRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new event.
func (r *EventRepository) Create(ctx context.Context, ev *event.Event) error {
	query := `
		INSERT INTO events (id, name, abbreviation, number, date, city, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		ev.ID,
		ev.Name,
		ev.Abbreviation,
		ev.Number,
		ev.Date,
		ev.City,
		ev.State,
		ev.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create event", "error", err)
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `
		SELECT id, name, abbreviation, number, date, city, state, created_at
		FROM events
		WHERE id = $1
	`

	var ev event.Event
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&ev.ID,
		&ev.Name,
		&ev.Abbreviation,
		&ev.Number,
		&ev.Date,
		&ev.City,
		&ev.State,
		&ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound{EventID: id}
		}
		r.logger.Error("Failed to get event", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &ev, nil
}

// List returns every event, newest first.
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `
		SELECT id, name, abbreviation, number, date, city, state, created_at
		FROM events
		ORDER BY date DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list events", "error", err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Abbreviation, &ev.Number, &ev.Date, &ev.City, &ev.State, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// CreateHistorical stores a frozen event archive produced at year close.
func (r *EventRepository) CreateHistorical(ctx context.Context, archived *event.HistoricalEvent) error {
	query := `
		INSERT INTO historical_events (id, name, number, date, city, state, debit_total, credit_total, net_change, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		archived.ID,
		archived.Name,
		archived.Number,
		archived.Date,
		archived.City,
		archived.State,
		archived.DebitTotal,
		archived.CreditTotal,
		archived.NetChange,
		archived.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create historical event", "error", err)
		return fmt.Errorf("failed to create historical event: %w", err)
	}

	return nil
}

// Delete removes an event once its transactions have been purged at year
// close.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete event", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return event.ErrEventNotFound{EventID: id}
	}

	return nil
}
