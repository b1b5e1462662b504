package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/history"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/domain/shared"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// adjustmentMemo names the entry that moves the closed year's earnings into
// retained earnings.
const adjustmentMemo = "End of Fiscal Year Adjustment"

// CloseServiceImpl implements the CloseService interface
type CloseServiceImpl struct {
	logger         *slog.Logger
	db             persistence.TxRunner
	accountRepo    account.Repository
	journalRepo    journal.Repository
	historyRepo    history.Repository
	fiscalYearRepo fiscalyear.Repository
	eventRepo      event.Repository
	auditRepo      audit.Repository
	snapshots      SnapshotComputer
}

// NewCloseService creates the fiscal-year close service
func NewCloseService(
	logger *slog.Logger,
	db persistence.TxRunner,
	accountRepo account.Repository,
	journalRepo journal.Repository,
	historyRepo history.Repository,
	fiscalYearRepo fiscalyear.Repository,
	eventRepo event.Repository,
	auditRepo audit.Repository,
	snapshots SnapshotComputer,
) CloseService {
	return &CloseServiceImpl{
		logger:         logger,
		db:             db,
		accountRepo:    accountRepo,
		journalRepo:    journalRepo,
		historyRepo:    historyRepo,
		fiscalYearRepo: fiscalYearRepo,
		eventRepo:      eventRepo,
		auditRepo:      auditRepo,
		snapshots:      snapshots,
	}
}

// Close archives the books for the requested fiscal year. The snapshot sums
// run concurrently on the worker pool; every write happens inside one
// database transaction. A year that is already recorded is a no-op, which
// makes redelivered close requests safe.
func (s *CloseServiceImpl) Close(ctx context.Context, request *shared.CloseRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	candidate, err := fiscalyear.New(request.Year, request.EndMonth, request.Period)
	if err != nil {
		return s.fail(ctx, logger, request, terminal(shared.CloseFailureUnknown, err))
	}

	years, err := s.fiscalYearRepo.ListNewestFirst(ctx)
	if err != nil {
		return fmt.Errorf("failed to list fiscal years: %w", err)
	}
	for _, fy := range years {
		if fy.Year == request.Year && fy.EndMonth == request.EndMonth {
			logger.Info("Fiscal year already closed, skipping",
				"year", request.Year,
				"end_month", request.EndMonth,
			)
			return nil
		}
	}
	if len(years) > 0 && !candidate.EndDate().After(years[0].EndDate()) {
		return s.fail(ctx, logger, request, terminal(shared.CloseFailureNotAfterLatest, fiscalyear.ErrNotAfterLatest))
	}
	if len(request.ExcludedAccountIDs) > 0 && len(years) == 0 {
		return s.fail(ctx, logger, request, terminal(shared.CloseFailureNoPreviousYear,
			errors.New("account exclusions require a completed prior fiscal year")))
	}

	// The months being archived: from the start of the closing year through
	// its end. With prior years the start is the month after the latest
	// recorded year ended.
	startMonth := candidate.StartMonth()
	if len(years) > 0 {
		latest := years[0]
		startMonth = time.Date(latest.Year, time.Month(latest.EndMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}
	cutoff := candidate.EndDate()
	months := fiscalyear.MonthsBetween(startMonth, cutoff)

	headers, err := s.accountRepo.ListHeaders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list headers: %w", err)
	}
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	chart, err := account.BuildChart(headers, accounts)
	if err != nil {
		return fmt.Errorf("failed to build chart: %w", err)
	}
	numbers := make(map[uuid.UUID]string, len(accounts))
	for _, acct := range accounts {
		number, err := chart.AccountNumber(acct)
		if err != nil {
			return fmt.Errorf("failed to derive account number: %w", err)
		}
		numbers[acct.ID] = number
	}

	logger.Info("Computing monthly snapshots",
		"year", request.Year,
		"months", len(months),
		"accounts", len(accounts),
	)
	amounts, err := s.snapshots.ComputeMonthlyAmounts(ctx, accounts, months)
	if err != nil {
		return fmt.Errorf("failed to compute snapshot amounts: %w", err)
	}

	var purged, archivedEvents int
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txJournal := s.journalRepo.WithTx(tx)
		txAccounts := s.accountRepo.WithTx(tx)
		txHistory := s.historyRepo.WithTx(tx)
		txFiscalYears := s.fiscalYearRepo.WithTx(tx)
		txEvents := s.eventRepo.WithTx(tx)

		// Figures that the purge would destroy are read first: the closed
		// year's earnings and the totals of every event being archived.
		plTypes := []int{
			int(account.TypeIncome), int(account.TypeCostOfSales), int(account.TypeExpense),
			int(account.TypeOtherIncome), int(account.TypeOtherExpense),
		}
		earnings, err := txJournal.SumBalanceDeltasByTypes(ctx, plTypes, time.Time{}, cutoff)
		if err != nil {
			return err
		}

		events, err := txEvents.List(ctx)
		if err != nil {
			return err
		}
		archives := make([]*event.HistoricalEvent, 0, len(events))
		closing := make([]*event.Event, 0, len(events))
		for _, evt := range events {
			if evt.Date.After(cutoff) {
				continue
			}
			lines, err := txJournal.ListTransactionsByEvent(ctx, evt.ID)
			if err != nil {
				return err
			}
			totals := journal.SumTotals(lines)
			archives = append(archives, evt.Archive(totals.DebitTotal, totals.CreditTotal, totals.NetChange))
			closing = append(closing, evt)
		}

		// 1. Monthly snapshots.
		for _, month := range months {
			for _, acct := range accounts {
				amount, ok := amounts[acct.ID][month]
				if !ok {
					amount = decimal.Zero
				}
				snapshot := history.NewHistoricalAccount(acct, numbers[acct.ID], amount, month)
				if err := txHistory.Create(ctx, snapshot); err != nil {
					var conflict history.ErrAlreadyArchived
					if errors.As(err, &conflict) {
						return terminal(shared.CloseFailureSnapshotConflict, err)
					}
					return err
				}
			}
		}

		// 2. Purge the closed year's entries. Entries holding unreconciled
		// lines of excluded accounts survive so they can still be reconciled.
		entries, err := txJournal.ListEntriesThrough(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if len(request.ExcludedAccountIDs) > 0 {
				keep, err := txJournal.HasUnreconciledLines(ctx, entry.ID, request.ExcludedAccountIDs)
				if err != nil {
					return err
				}
				if keep {
					continue
				}
			}
			if err := txJournal.DeleteEntry(ctx, entry.ID); err != nil {
				return err
			}
			purged++
		}

		// 3. Re-seed balances from what remains.
		lastMonth := months[len(months)-1]
		postStart := cutoff.AddDate(0, 0, 1)
		for _, acct := range accounts {
			post, err := txJournal.SumBalanceDeltas(ctx, acct.ID, postStart, time.Time{})
			if err != nil {
				return err
			}
			balance := post
			if acct.Type.IsBalanceSheet() {
				balance = amounts[acct.ID][lastMonth].Add(post)
			}
			if err := txAccounts.SetBalance(ctx, acct.ID, balance); err != nil {
				return err
			}
		}

		// 4. Move the closed year's earnings into retained earnings.
		if !earnings.IsZero() {
			if err := s.postAdjustment(ctx, txJournal, txAccounts, accounts, earnings, postStart); err != nil {
				return err
			}
		}

		// 5. Freeze events whose transactions were purged.
		for i, evt := range closing {
			if err := txEvents.CreateHistorical(ctx, archives[i]); err != nil {
				return err
			}
			if err := txEvents.Delete(ctx, evt.ID); err != nil {
				return err
			}
			archivedEvents++
		}

		// 6. Record the closed year.
		return txFiscalYears.Create(ctx, candidate)
	})
	if err != nil {
		var closeErr *CloseError
		if errors.As(err, &closeErr) {
			return s.fail(ctx, logger, request, closeErr)
		}
		return fmt.Errorf("failed to close fiscal year %d: %w", request.Year, err)
	}

	s.appendAudit(ctx, audit.NewRecord(audit.ActionFiscalYearClosed, candidate.ID, request.CorrelationID, map[string]any{
		"year":            request.Year,
		"end_month":       request.EndMonth,
		"period":          request.Period,
		"months_archived": len(months),
		"entries_purged":  purged,
		"events_archived": archivedEvents,
	}))
	logger.Info("Fiscal year closed",
		"year", request.Year,
		"months_archived", len(months),
		"entries_purged", purged,
		"events_archived", archivedEvents,
	)
	return nil
}

// postAdjustment posts the entry that empties Current Year Earnings into
// Retained Earnings, dated on the first day of the new year.
func (s *CloseServiceImpl) postAdjustment(
	ctx context.Context,
	txJournal journal.Repository,
	txAccounts account.Repository,
	accounts []*account.Account,
	earnings decimal.Decimal,
	date time.Time,
) error {
	var earningsAcct, retainedAcct *account.Account
	for _, acct := range accounts {
		switch acct.Name {
		case account.EarningsAccountName:
			earningsAcct = acct
		case account.RetainedEarningsName:
			retainedAcct = acct
		}
	}
	if earningsAcct == nil || retainedAcct == nil {
		return terminal(shared.CloseFailureMissingAccount,
			errors.New("the chart is missing the earnings or retained earnings account"))
	}

	entry, err := journal.NewEntry(date, adjustmentMemo, "", nil)
	if err != nil {
		return err
	}
	seq, err := txJournal.NextSequence(ctx, journal.KindGeneral)
	if err != nil {
		return err
	}
	entry.Sequence = seq

	now := time.Now()
	lines := []*journal.Transaction{
		{
			ID:           uuid.New(),
			EntryID:      entry.ID,
			AccountID:    earningsAcct.ID,
			Detail:       adjustmentMemo,
			BalanceDelta: earnings.Neg(),
			Date:         entry.Date,
			CreatedAt:    now,
		},
		{
			ID:           uuid.New(),
			EntryID:      entry.ID,
			AccountID:    retainedAcct.ID,
			Detail:       adjustmentMemo,
			BalanceDelta: earnings,
			Date:         entry.Date,
			CreatedAt:    now,
		},
	}
	if err := txJournal.CreateEntry(ctx, entry, lines); err != nil {
		return err
	}
	for _, line := range lines {
		if err := txAccounts.ApplyBalanceDelta(ctx, line.AccountID, line.BalanceDelta); err != nil {
			return err
		}
	}
	return nil
}

// fail records the terminal failure on the audit trail and hands the typed
// error back for dead-lettering.
func (s *CloseServiceImpl) fail(ctx context.Context, logger *slog.Logger, request *shared.CloseRequest, closeErr *CloseError) error {
	logger.Error("Fiscal year close failed",
		"year", request.Year,
		"reason", string(closeErr.Reason),
		"error", closeErr.Err,
	)
	s.appendAudit(ctx, audit.NewRecord(audit.ActionFiscalYearCloseFailed, request.RequestID, request.CorrelationID, map[string]any{
		"year":      request.Year,
		"end_month": request.EndMonth,
		"reason":    string(closeErr.Reason),
		"error":     closeErr.Err.Error(),
	}))
	return closeErr
}

// appendAudit records the action without failing the close; a broken audit
// store is logged, not surfaced.
func (s *CloseServiceImpl) appendAudit(ctx context.Context, record *audit.Record) {
	if err := s.auditRepo.Append(ctx, record); err != nil {
		s.logger.Error("Failed to append audit record", "action", string(record.Action), "error", err)
	}
}
