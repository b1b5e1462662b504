package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/shared"
)

// CloseService executes fiscal-year close requests: monthly snapshots, the
// closed-year purge, balance re-seeding, the earnings adjustment entry, event
// archival and the fiscal year record itself.
type CloseService interface {
	Close(ctx context.Context, request *shared.CloseRequest) error
}

// MonthlyAmounts holds, per account, the snapshot figure for each elapsed
// month of the year being closed: end-of-month balances for balance-sheet
// accounts, monthly net change for profit-and-loss accounts. Amounts stay in
// the credit/debit convention.
type MonthlyAmounts map[uuid.UUID]map[time.Time]decimal.Decimal

// SnapshotComputer computes the monthly snapshot figures, fanning the
// per-account ledger sums out over a worker pool.
type SnapshotComputer interface {
	ComputeMonthlyAmounts(ctx context.Context, accounts []*account.Account, months []time.Time) (MonthlyAmounts, error)
}

// CloseError marks a close failure as terminal: retrying the request cannot
// succeed, so the consumer routes it to the dead letter queue instead of
// leaving it on the topic.
type CloseError struct {
	Reason shared.CloseFailureReason
	Err    error
}

func (e *CloseError) Error() string {
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

func terminal(reason shared.CloseFailureReason, err error) *CloseError {
	return &CloseError{Reason: reason, Err: err}
}
