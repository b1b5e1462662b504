package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/domain/journal"
)

// EventServiceImpl implements the EventService interface
type EventServiceImpl struct {
	eventRepo   event.Repository
	journalRepo journal.Repository
}

// NewEventService creates a new event service
func NewEventService(eventRepo event.Repository, journalRepo journal.Repository) EventService {
	return &EventServiceImpl{
		eventRepo:   eventRepo,
		journalRepo: journalRepo,
	}
}

// Create records a new event.
func (s *EventServiceImpl) Create(ctx context.Context, name, abbreviation string, date time.Time, city, state string) (*event.Event, error) {
	evt, err := event.NewEvent(name, abbreviation, date, city, state)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// Get returns an event with the totals of every line tagged to it.
func (s *EventServiceImpl) Get(ctx context.Context, id uuid.UUID) (*EventDetail, error) {
	evt, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.journalRepo.ListTransactionsByEvent(ctx, evt.ID)
	if err != nil {
		return nil, err
	}
	return &EventDetail{
		Event:  evt,
		Totals: journal.SumTotals(lines),
		Lines:  lines,
	}, nil
}

// List returns all events, newest first.
func (s *EventServiceImpl) List(ctx context.Context) ([]*event.Event, error) {
	return s.eventRepo.List(ctx)
}
