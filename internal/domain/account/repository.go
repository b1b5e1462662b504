package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines chart-of-accounts persistence operations
type Repository interface {
	CreateHeader(ctx context.Context, header *Header) error
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAccountBySlug(ctx context.Context, slug string) (*Account, error)
	ListHeaders(ctx context.Context) ([]*Header, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	ListAccountsByTypes(ctx context.Context, types []Type) ([]*Account, error)
	ListBankAccounts(ctx context.Context) ([]*Account, error)

	// ApplyBalanceDelta atomically adds a signed credit/debit delta to the
	// stored balance of the account.
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// SetBalance overwrites the stored balance, used when balances are
	// re-seeded after a fiscal-year close.
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// MarkReconciled advances the account's reconciliation checkpoint.
	MarkReconciled(ctx context.Context, id uuid.UUID, statementBalance decimal.Decimal, statementDate time.Time) error

	// LockForUpdate acquires a row lock for use inside a transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates a missing account
type ErrAccountNotFound struct {
	Ref string // id, slug or name used for the lookup
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.Ref
}

// ErrDuplicateSlug indicates a slug uniqueness violation
type ErrDuplicateSlug struct {
	Slug string
}

func (e ErrDuplicateSlug) Error() string {
	return "account or header with slug already exists: " + e.Slug
}
