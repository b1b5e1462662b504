package fiscalyear

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository persists fiscal years
type Repository interface {
	Create(ctx context.Context, fy *FiscalYear) error

	// ListNewestFirst returns all fiscal years ordered by end date, newest
	// first, the order CurrentStart expects.
	ListNewestFirst(ctx context.Context) ([]*FiscalYear, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrNoFiscalYear indicates that no fiscal year has been recorded yet
type ErrNoFiscalYear struct{}

func (ErrNoFiscalYear) Error() string {
	return "no fiscal year exists"
}
