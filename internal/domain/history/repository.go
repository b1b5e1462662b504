package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository persists historical snapshots. There is deliberately no update
// operation: rows are immutable once created.
type Repository interface {
	Create(ctx context.Context, snapshot *HistoricalAccount) error
	ListByMonth(ctx context.Context, year int, month time.Month) ([]*HistoricalAccount, error)
	MonthExists(ctx context.Context, year int, month time.Month) (bool, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAlreadyArchived indicates a write-once violation: a snapshot for the
// (month, name) pair already exists.
type ErrAlreadyArchived struct {
	Name  string
	Month time.Time
}

func (e ErrAlreadyArchived) Error() string {
	return "account already archived for month: " + e.Name + " " + e.Month.Format("01/2006")
}

// ErrNoHistory indicates that no snapshot matched the query.
type ErrNoHistory struct {
	Name string
}

func (e ErrNoHistory) Error() string {
	if e.Name == "" {
		return "no account history exists"
	}
	return "no account history exists for: " + e.Name
}
