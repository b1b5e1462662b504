package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// EntryServiceImpl implements the EntryService interface
type EntryServiceImpl struct {
	logger         *slog.Logger
	db             persistence.TxRunner
	journalRepo    journal.Repository
	accountRepo    account.Repository
	fiscalYearRepo fiscalyear.Repository
	auditRepo      audit.Repository
	accounts       AccountService
}

// NewEntryService creates a new journal entry service
func NewEntryService(
	logger *slog.Logger,
	db persistence.TxRunner,
	journalRepo journal.Repository,
	accountRepo account.Repository,
	fiscalYearRepo fiscalyear.Repository,
	auditRepo audit.Repository,
	accounts AccountService,
) EntryService {
	return &EntryServiceImpl{
		logger:         logger,
		db:             db,
		journalRepo:    journalRepo,
		accountRepo:    accountRepo,
		fiscalYearRepo: fiscalYearRepo,
		auditRepo:      auditRepo,
		accounts:       accounts,
	}
}

// activeSet answers account liveness checks for line validation.
type activeSet map[uuid.UUID]bool

func (s activeSet) Active(id uuid.UUID) bool { return s[id] }

// PostEntry validates and posts a journal entry. Rule violations come back as
// a ValidationError slice with a nil error; infrastructure failures as an
// error.
func (s *EntryServiceImpl) PostEntry(ctx context.Context, input PostEntryInput) (*journal.Entry, []*journal.Transaction, []journal.ValidationError, error) {
	entry := &journal.Entry{
		ID:          uuid.New(),
		Kind:        input.Kind,
		Date:        input.Date,
		Memo:        input.Memo,
		Comments:    input.Comments,
		EventID:     input.EventID,
		CheckNumber: input.CheckNumber,
		ACHPayment:  input.ACHPayment,
		Payee:       input.Payee,
		Payor:       input.Payor,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if entry.Kind == "" {
		entry.Kind = journal.KindGeneral
	}

	if err := entry.Validate(); err != nil {
		return nil, nil, []journal.ValidationError{{Line: -1, Message: err.Error()}}, nil
	}

	lines := input.Lines

	// Bank entries carry an offsetting main transaction against the bank
	// account: a credit for spending, a debit for receiving.
	var mainLine *journal.LineInput
	if entry.Kind == journal.KindBankSpending || entry.Kind == journal.KindBankReceiving {
		if input.MainAccountID == nil {
			return nil, nil, []journal.ValidationError{{Line: -1, Message: journal.ErrMissingMainAccount.Error()}}, nil
		}
		bankAcc, err := s.accountRepo.GetAccountByID(ctx, *input.MainAccountID)
		if err != nil {
			return nil, nil, nil, err
		}
		if !bankAcc.Bank {
			return nil, nil, []journal.ValidationError{{Line: -1, Message: journal.ErrMissingMainAccount.Error()}}, nil
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.BalanceDelta())
		}
		main := journal.LineInput{AccountID: *input.MainAccountID}
		if total.Sign() < 0 {
			main.Credit = total.Neg()
		} else {
			main.Debit = total
		}
		mainLine = &main
		lines = append(lines, main)
	}

	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	active := make(activeSet, len(accounts))
	for _, a := range accounts {
		active[a.ID] = a.Active
	}

	years, err := s.fiscalYearRepo.ListNewestFirst(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	if errs := journal.ValidateLines(entry.Date, lines, active, fiscalyear.CurrentStart(years)); len(errs) > 0 {
		return nil, nil, errs, nil
	}

	transactions := journal.BuildTransactions(entry, lines)
	if mainLine != nil {
		mainID := transactions[len(transactions)-1].ID
		entry.MainTransactionID = &mainID
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txJournal := s.journalRepo.WithTx(tx)
		txAccounts := s.accountRepo.WithTx(tx)

		seq, err := txJournal.NextSequence(ctx, entry.Kind)
		if err != nil {
			return err
		}
		entry.Sequence = seq

		if err := txJournal.CreateEntry(ctx, entry, transactions); err != nil {
			return err
		}
		for _, line := range transactions {
			if err := txAccounts.ApplyBalanceDelta(ctx, line.AccountID, line.BalanceDelta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to post entry: %w", err)
	}

	s.accounts.InvalidateBalances(accountIDs(transactions)...)
	s.appendAudit(ctx, audit.NewRecord(audit.ActionEntryPosted, entry.ID, "", map[string]any{
		"kind":   string(entry.Kind),
		"number": entry.Number(),
		"lines":  len(transactions),
	}))

	return entry, transactions, nil, nil
}

// GetEntry retrieves an entry with its lines.
func (s *EntryServiceImpl) GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, []*journal.Transaction, error) {
	return s.journalRepo.GetEntry(ctx, id)
}

// Transfer posts a two-line general entry: debit the source account, credit
// the destination.
func (s *EntryServiceImpl) Transfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal, date time.Time, memo, detail string) (*journal.Entry, []journal.ValidationError, error) {
	if memo == "" {
		memo = "Transfer"
	}
	entry, _, errs, err := s.PostEntry(ctx, PostEntryInput{
		Kind: journal.KindGeneral,
		Date: date,
		Memo: memo,
		Lines: []journal.LineInput{
			{AccountID: sourceID, Detail: detail, Debit: amount},
			{AccountID: destinationID, Detail: detail, Credit: amount},
		},
	})
	return entry, errs, err
}

// Void voids a bank spending entry: every line's delta is reversed on its
// account, the side lines are deleted and the main transaction is zeroed.
func (s *EntryServiceImpl) Void(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	entry, lines, err := s.journalRepo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Void {
		return nil, journal.ErrVoidEntry
	}
	if err := entry.MarkVoid(); err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txJournal := s.journalRepo.WithTx(tx)
		txAccounts := s.accountRepo.WithTx(tx)

		for _, line := range lines {
			if err := txAccounts.ApplyBalanceDelta(ctx, line.AccountID, line.BalanceDelta.Neg()); err != nil {
				return err
			}
		}
		if err := txJournal.DeleteEntryLines(ctx, entry.ID); err != nil {
			return err
		}
		if entry.MainTransactionID != nil {
			if err := txJournal.ZeroTransaction(ctx, *entry.MainTransactionID); err != nil {
				return err
			}
		}
		return txJournal.UpdateEntry(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to void entry: %w", err)
	}

	s.accounts.InvalidateBalances(accountIDs(lines)...)
	s.appendAudit(ctx, audit.NewRecord(audit.ActionEntryVoided, entry.ID, "", map[string]any{
		"number": entry.Number(),
	}))

	return entry, nil
}

// appendAudit records the action without failing the already committed
// operation; a broken audit store is logged, not surfaced.
func (s *EntryServiceImpl) appendAudit(ctx context.Context, record *audit.Record) {
	if err := s.auditRepo.Append(ctx, record); err != nil {
		s.logger.Error("Failed to append audit record", "action", string(record.Action), "error", err)
	}
}

func accountIDs(lines []*journal.Transaction) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	return ids
}
