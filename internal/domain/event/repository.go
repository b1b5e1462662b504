package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists events and their frozen year-close archives
type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	CreateHistorical(ctx context.Context, archived *HistoricalEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrEventNotFound indicates a missing event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "event not found: " + e.EventID.String()
}
