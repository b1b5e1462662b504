package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/history"
	"github.com/coop-bookkeeping/internal/domain/journal"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner drives transactional closures without a database. The nil tx
// is fine because the repositories are mocks whose WithTx ignores it.
type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type MockSnapshotComputer struct {
	mock.Mock
}

func (m *MockSnapshotComputer) ComputeMonthlyAmounts(ctx context.Context, accounts []*account.Account, months []time.Time) (MonthlyAmounts, error) {
	args := m.Called(ctx, accounts, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(MonthlyAmounts), args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateHeader(ctx context.Context, header *account.Header) error {
	args := m.Called(ctx, header)
	return args.Error(0)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountBySlug(ctx context.Context, slug string) (*account.Account, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListHeaders(ctx context.Context) ([]*account.Header, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Header), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByTypes(ctx context.Context, types []account.Type) ([]*account.Account, error) {
	args := m.Called(ctx, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListBankAccounts(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockAccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockAccountRepository) MarkReconciled(ctx context.Context, id uuid.UUID, statementBalance decimal.Decimal, statementDate time.Time) error {
	args := m.Called(ctx, id, statementBalance, statementDate)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	m.Called(tx)
	return m
}

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) CreateEntry(ctx context.Context, entry *journal.Entry, lines []*journal.Transaction) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, []*journal.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*journal.Entry), args.Get(1).([]*journal.Transaction), args.Error(2)
}

func (m *MockJournalRepository) UpdateEntry(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) DeleteEntryLines(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockJournalRepository) ZeroTransaction(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJournalRepository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, start, stop time.Time) ([]*journal.Transaction, error) {
	args := m.Called(ctx, accountID, start, stop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Transaction), args.Error(1)
}

func (m *MockJournalRepository) ListTransactionsByEvent(ctx context.Context, eventID uuid.UUID) ([]*journal.Transaction, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Transaction), args.Error(1)
}

func (m *MockJournalRepository) ListUnreconciled(ctx context.Context, accountID uuid.UUID, through time.Time) ([]*journal.Transaction, error) {
	args := m.Called(ctx, accountID, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Transaction), args.Error(1)
}

func (m *MockJournalRepository) GetTransactions(ctx context.Context, ids []uuid.UUID) ([]*journal.Transaction, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Transaction), args.Error(1)
}

func (m *MockJournalRepository) MarkReconciled(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockJournalRepository) SumBalanceDeltas(ctx context.Context, accountID uuid.UUID, start, stop time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, start, stop)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockJournalRepository) SumBalanceDeltasByTypes(ctx context.Context, types []int, start, stop time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, types, start, stop)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockJournalRepository) ListEntriesThrough(ctx context.Context, cutoff time.Time) ([]*journal.Entry, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJournalRepository) HasUnreconciledLines(ctx context.Context, entryID uuid.UUID, accountIDs []uuid.UUID) (bool, error) {
	args := m.Called(ctx, entryID, accountIDs)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalRepository) NextSequence(ctx context.Context, kind journal.Kind) (int64, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) WithTx(tx pgx.Tx) journal.Repository {
	m.Called(tx)
	return m
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, snapshot *history.HistoricalAccount) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]*history.HistoricalAccount, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.HistoricalAccount), args.Error(1)
}

func (m *MockHistoryRepository) MonthExists(ctx context.Context, year int, month time.Month) (bool, error) {
	args := m.Called(ctx, year, month)
	return args.Bool(0), args.Error(1)
}

func (m *MockHistoryRepository) WithTx(tx pgx.Tx) history.Repository {
	m.Called(tx)
	return m
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, evt *event.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context) ([]*event.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) CreateHistorical(ctx context.Context, archived *event.HistoricalEvent) error {
	args := m.Called(ctx, archived)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) WithTx(tx pgx.Tx) event.Repository {
	m.Called(tx)
	return m
}

type MockFiscalYearRepository struct {
	mock.Mock
}

func (m *MockFiscalYearRepository) Create(ctx context.Context, fy *fiscalyear.FiscalYear) error {
	args := m.Called(ctx, fy)
	return args.Error(0)
}

func (m *MockFiscalYearRepository) ListNewestFirst(ctx context.Context) ([]*fiscalyear.FiscalYear, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscalyear.FiscalYear), args.Error(1)
}

func (m *MockFiscalYearRepository) WithTx(tx pgx.Tx) fiscalyear.Repository {
	m.Called(tx)
	return m
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, record *audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) GetBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*audit.Record, error) {
	args := m.Called(ctx, subjectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Record), args.Error(1)
}

func (m *MockAuditRepository) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.Record, error) {
	args := m.Called(ctx, start, end, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Record), args.Error(1)
}

var _ SnapshotComputer = (*MockSnapshotComputer)(nil)
var _ account.Repository = (*MockAccountRepository)(nil)
var _ journal.Repository = (*MockJournalRepository)(nil)
var _ history.Repository = (*MockHistoryRepository)(nil)
var _ event.Repository = (*MockEventRepository)(nil)
var _ fiscalyear.Repository = (*MockFiscalYearRepository)(nil)
var _ audit.Repository = (*MockAuditRepository)(nil)
