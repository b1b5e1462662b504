package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/history"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/domain/shared"
	"github.com/coop-bookkeeping/internal/reconcile"
)

// ChartAccount is one account row of the chart view with its derived number
// and display balance.
type ChartAccount struct {
	Account *account.Account
	Number  string
	Value   decimal.Decimal
}

// ChartNode is one header of the chart view with its subtree total.
type ChartNode struct {
	Header   *account.Header
	Number   string
	Total    decimal.Decimal
	Children []*ChartNode
	Accounts []*ChartAccount
}

// LedgerLine pairs a transaction with the running value balance after it.
type LedgerLine struct {
	Transaction    *journal.Transaction
	RunningBalance decimal.Decimal
}

// Ledger is an account's register view over a date window.
type Ledger struct {
	Account        *account.Account
	Number         string
	ValueBalance   decimal.Decimal
	OpeningBalance decimal.Decimal // value convention, before the window
	Lines          []LedgerLine
	Totals         journal.Totals
}

// AccountService defines the chart-of-accounts operations
type AccountService interface {
	// CreateHeader creates a grouping header; child headers inherit the
	// parent's type.
	CreateHeader(ctx context.Context, name, slug string, accountType account.Type, parentID *uuid.UUID) (*account.Header, error)

	// CreateAccount creates an account under the given header.
	CreateAccount(ctx context.Context, name, slug string, parentID uuid.UUID, bank bool) (*account.Account, error)

	// Chart returns the full chart of accounts as a tree with derived
	// numbers and subtree totals.
	Chart(ctx context.Context) ([]*ChartNode, error)

	// GetBySlug retrieves an account by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*account.Account, error)

	// Ledger returns the account's register over the window with running
	// balances. Zero start/stop leave the window open on that side.
	Ledger(ctx context.Context, slug string, start, stop time.Time) (*Ledger, error)

	// BankAccounts lists the active bank-flagged accounts with their
	// display balances.
	BankAccounts(ctx context.Context) ([]*ChartAccount, error)

	// ValueBalance returns the display balance of an account. For the
	// Current Year Earnings account this is the sum of all profit-and-loss
	// balances rather than the stored figure.
	ValueBalance(ctx context.Context, acct *account.Account) (decimal.Decimal, error)

	// InvalidateBalances drops cached balances for the given accounts.
	InvalidateBalances(ids ...uuid.UUID)
}

// PostEntryInput is a submitted journal entry with its lines.
type PostEntryInput struct {
	Kind     journal.Kind
	Date     time.Time
	Memo     string
	Comments string
	EventID  *uuid.UUID

	// Bank entry fields; MainAccountID names the bank account carrying the
	// offsetting main transaction.
	CheckNumber   string
	ACHPayment    bool
	Payee         string
	Payor         string
	MainAccountID *uuid.UUID

	Lines []journal.LineInput
}

// EntryService defines journal entry operations
type EntryService interface {
	// PostEntry validates and posts an entry. Rule violations come back as
	// a non-empty ValidationError slice with a nil error.
	PostEntry(ctx context.Context, input PostEntryInput) (*journal.Entry, []*journal.Transaction, []journal.ValidationError, error)

	// GetEntry retrieves an entry with its lines.
	GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, []*journal.Transaction, error)

	// Transfer posts a two-line general entry moving amount from the source
	// account to the destination account.
	Transfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal, date time.Time, memo, detail string) (*journal.Entry, []journal.ValidationError, error)

	// Void voids a bank spending entry: lines are deleted, the main
	// transaction is zeroed and account balances are restored.
	Void(ctx context.Context, id uuid.UUID) (*journal.Entry, error)
}

// ReconcileInput is one reconciliation request.
type ReconcileInput struct {
	StatementDate    time.Time
	StatementBalance *decimal.Decimal // nil means not supplied
	TransactionIDs   []uuid.UUID
}

// ReconcileService defines statement reconciliation operations
type ReconcileService interface {
	// Candidates lists the account's unreconciled lines dated on or before
	// the through date, the lines a statement could cover.
	Candidates(ctx context.Context, slug string, through time.Time) (*account.Account, []*journal.Transaction, error)

	// Preview computes the session summary without committing. A missing
	// statement balance is treated as zero.
	Preview(ctx context.Context, slug string, input ReconcileInput) (*account.Account, reconcile.Summary, error)

	// Commit validates and commits the reconciliation. A missing statement
	// balance is rejected.
	Commit(ctx context.Context, slug string, input ReconcileInput) (reconcile.Summary, error)
}

// MonthView groups one archived month's snapshots into presentation tabs.
type MonthView struct {
	Month         time.Time
	Balance       []*history.HistoricalAccount
	ProfitAndLoss []*history.HistoricalAccount
	HasPrevious   bool
	Previous      time.Time
	HasNext       bool
	Next          time.Time
}

// HistoryService defines archived-figure queries
type HistoryService interface {
	Month(ctx context.Context, year int, month time.Month) (*MonthView, error)
}

// EventDetail pairs an event with its transaction totals.
type EventDetail struct {
	Event  *event.Event
	Totals journal.Totals
	Lines  []*journal.Transaction
}

// EventService defines event operations
type EventService interface {
	Create(ctx context.Context, name, abbreviation string, date time.Time, city, state string) (*event.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*EventDetail, error)
	List(ctx context.Context) ([]*event.Event, error)
}

// FiscalYearService defines fiscal-year administration
type FiscalYearService interface {
	// Current returns the start of the current fiscal year (zero when none
	// exists) and the latest recorded year (nil when none exists).
	Current(ctx context.Context) (time.Time, *fiscalyear.FiscalYear, error)

	// RequestClose validates a close request and publishes it for the
	// year-close worker.
	RequestClose(ctx context.Context, year, endMonth, period int, excludedAccountIDs []uuid.UUID, correlationID string) (*shared.CloseRequest, error)
}

// AuditService defines read access to the audit trail
type AuditService interface {
	// BySubject returns the newest records for one subject, newest first.
	BySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*audit.Record, error)

	// ByTimeRange returns the records created between start and end
	// inclusive, newest first.
	ByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.Record, error)
}
