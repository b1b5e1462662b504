package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/platform/persistence"
	"github.com/coop-bookkeeping/internal/reconcile"
)

// ReconcileServiceImpl implements the ReconcileService interface
type ReconcileServiceImpl struct {
	logger      *slog.Logger
	db          persistence.TxRunner
	accountRepo account.Repository
	journalRepo journal.Repository
	auditRepo   audit.Repository
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(
	logger *slog.Logger,
	db persistence.TxRunner,
	accountRepo account.Repository,
	journalRepo journal.Repository,
	auditRepo audit.Repository,
) ReconcileService {
	return &ReconcileServiceImpl{
		logger:      logger,
		db:          db,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		auditRepo:   auditRepo,
	}
}

// Candidates lists the unreconciled lines a statement dated through could
// cover.
func (s *ReconcileServiceImpl) Candidates(ctx context.Context, slug string, through time.Time) (*account.Account, []*journal.Transaction, error) {
	acc, err := s.accountRepo.GetAccountBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.journalRepo.ListUnreconciled(ctx, acc.ID, through)
	if err != nil {
		return nil, nil, err
	}

	return acc, lines, nil
}

// session loads the account and the selected lines, rejecting lines charged
// to a different account.
func (s *ReconcileServiceImpl) session(ctx context.Context, slug string, input ReconcileInput, balance decimal.Decimal) (*reconcile.Session, []*journal.Transaction, error) {
	acc, err := s.accountRepo.GetAccountBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	selected, err := s.journalRepo.GetTransactions(ctx, input.TransactionIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, line := range selected {
		if line.AccountID != acc.ID {
			return nil, nil, journal.ErrTransactionNotFound{TransactionID: line.ID}
		}
	}

	session := &reconcile.Session{
		Account: acc,
		Statement: reconcile.Statement{
			Date:    input.StatementDate,
			Balance: balance,
		},
	}
	return session, selected, nil
}

// Preview computes the running summary for a candidate selection. A missing
// statement balance is treated as zero so the arithmetic can be shown while
// the figure is still being typed in.
func (s *ReconcileServiceImpl) Preview(ctx context.Context, slug string, input ReconcileInput) (*account.Account, reconcile.Summary, error) {
	balance := decimal.Zero
	if input.StatementBalance != nil {
		balance = *input.StatementBalance
	}

	session, selected, err := s.session(ctx, slug, input, balance)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}
	return session.Account, session.Summarize(selected), nil
}

// Commit validates the selection against the statement and, when it zeroes
// out, marks the lines reconciled and advances the account's checkpoint in
// one transaction.
func (s *ReconcileServiceImpl) Commit(ctx context.Context, slug string, input ReconcileInput) (reconcile.Summary, error) {
	if input.StatementBalance == nil {
		return reconcile.Summary{}, reconcile.ErrStatementBalanceRequired
	}

	session, selected, err := s.session(ctx, slug, input, *input.StatementBalance)
	if err != nil {
		return reconcile.Summary{}, err
	}

	summary, err := session.Validate(selected)
	if err != nil {
		return summary, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		// Lock the account row so two commits against the same account
		// cannot interleave their checkpoint updates.
		txAccounts := s.accountRepo.WithTx(tx)
		if _, err := txAccounts.LockForUpdate(ctx, session.Account.ID); err != nil {
			return err
		}
		if err := s.journalRepo.WithTx(tx).MarkReconciled(ctx, input.TransactionIDs); err != nil {
			return err
		}
		return txAccounts.MarkReconciled(ctx, session.Account.ID, session.CheckpointBalance(), input.StatementDate)
	})
	if err != nil {
		return summary, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	record := audit.NewRecord(audit.ActionReconciliationCommitted, session.Account.ID, "", map[string]any{
		"account":           session.Account.Slug,
		"statement_date":    input.StatementDate.Format("01/02/2006"),
		"statement_balance": input.StatementBalance.String(),
		"lines":             len(selected),
	})
	if err := s.auditRepo.Append(ctx, record); err != nil {
		s.logger.Error("Failed to append audit record", "action", string(record.Action), "error", err)
	}

	return summary, nil
}
