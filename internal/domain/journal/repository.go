package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository manages journal entry and transaction persistence
type Repository interface {
	CreateEntry(ctx context.Context, entry *Entry, lines []*Transaction) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, []*Transaction, error)
	UpdateEntry(ctx context.Context, entry *Entry) error

	// DeleteEntryLines removes every line of the entry, used when a bank
	// spending entry is voided.
	DeleteEntryLines(ctx context.Context, entryID uuid.UUID) error

	// ZeroTransaction sets a line's balance delta to zero (the void
	// counterpart for a bank entry's main transaction).
	ZeroTransaction(ctx context.Context, id uuid.UUID) error

	ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, start, stop time.Time) ([]*Transaction, error)
	ListTransactionsByEvent(ctx context.Context, eventID uuid.UUID) ([]*Transaction, error)
	ListUnreconciled(ctx context.Context, accountID uuid.UUID, through time.Time) ([]*Transaction, error)
	GetTransactions(ctx context.Context, ids []uuid.UUID) ([]*Transaction, error)
	MarkReconciled(ctx context.Context, ids []uuid.UUID) error

	// SumBalanceDeltas returns the signed sum over an account's lines in the
	// half-open date window; a zero start or stop leaves that side unbounded.
	SumBalanceDeltas(ctx context.Context, accountID uuid.UUID, start, stop time.Time) (decimal.Decimal, error)

	// SumBalanceDeltasByTypes is SumBalanceDeltas over every account of the
	// given types; it backs the Current Year Earnings figure.
	SumBalanceDeltasByTypes(ctx context.Context, types []int, start, stop time.Time) (decimal.Decimal, error)

	// ListEntriesThrough returns entries dated on or before the cutoff,
	// together with their line ids, for fiscal-year purging.
	ListEntriesThrough(ctx context.Context, cutoff time.Time) ([]*Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error

	// HasUnreconciledLines reports whether the entry holds an unreconciled
	// line charged to any of the given accounts.
	HasUnreconciledLines(ctx context.Context, entryID uuid.UUID, accountIDs []uuid.UUID) (bool, error)

	NextSequence(ctx context.Context, kind Kind) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing journal entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.EntryID.String()
}

// Is matches any ErrEntryNotFound when the target carries a nil ID.
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	return t.EntryID == uuid.Nil || t.EntryID == e.EntryID
}

// ErrTransactionNotFound indicates a referenced line that no longer exists,
// e.g. one selected for reconciliation after being purged.
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID.
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateTransaction indicates the same line was named more than once in
// a selection.
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return "transaction selected more than once: " + e.TransactionID.String()
}

// Is matches any ErrDuplicateTransaction when the target carries a nil ID.
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}
