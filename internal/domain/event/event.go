// Package event groups transactions by real-world occasions (trips, fairs,
// workdays) independently of the date-based journal grouping.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyEventName    = errors.New("event name cannot be empty")
	ErrEmptyAbbreviation = errors.New("event abbreviation cannot be empty")
)

// Event holds information about a single occasion.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	Number       string    `json:"number"` // derived: ABBR + 2-digit year
	Date         time.Time `json:"date"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEvent creates an event and derives its number from the abbreviation and
// the event year.
func NewEvent(name, abbreviation string, date time.Time, city, state string) (*Event, error) {
	if name == "" {
		return nil, ErrEmptyEventName
	}
	if abbreviation == "" {
		return nil, ErrEmptyAbbreviation
	}
	e := &Event{
		ID:           uuid.New(),
		Name:         name,
		Abbreviation: strings.ToUpper(abbreviation),
		Date:         date,
		City:         city,
		State:        state,
		CreatedAt:    time.Now(),
	}
	e.Number = e.deriveNumber()
	return e, nil
}

func (e *Event) deriveNumber() string {
	year := fmt.Sprintf("%04d", e.Date.Year())
	return e.Abbreviation + year[2:]
}

// HistoricalEvent freezes an event's totals when its fiscal year closes and
// the underlying transactions are purged.
type HistoricalEvent struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Number      string          `json:"number"`
	Date        time.Time       `json:"date"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	DebitTotal  decimal.Decimal `json:"debit_total"` // stored negative
	CreditTotal decimal.Decimal `json:"credit_total"`
	NetChange   decimal.Decimal `json:"net_change"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Archive freezes the event with the given totals.
func (e *Event) Archive(debitTotal, creditTotal, netChange decimal.Decimal) *HistoricalEvent {
	return &HistoricalEvent{
		ID:          uuid.New(),
		Name:        e.Name,
		Number:      e.Number,
		Date:        e.Date,
		City:        e.City,
		State:       e.State,
		DebitTotal:  debitTotal,
		CreditTotal: creditTotal,
		NetChange:   netChange,
		CreatedAt:   time.Now(),
	}
}
