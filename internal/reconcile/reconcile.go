// Package reconcile implements statement reconciliation: matching a selected
// subset of unreconciled ledger lines against a bank or credit-card
// statement balance.
package reconcile

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/money"
)

var (
	// ErrOutOfBalance rejects a commit whose selection does not zero out
	// against the statement.
	ErrOutOfBalance = errors.New("the selected transactions are out of balance with the statement amount")

	// ErrStatementBeforeLastReconciled rejects a statement dated before the
	// account's last reconciliation checkpoint.
	ErrStatementBeforeLastReconciled = errors.New("the statement date must be later than the last reconciled date")

	// ErrStatementBalanceRequired rejects a commit without a statement
	// balance. Previews treat a missing balance as zero instead.
	ErrStatementBalanceRequired = errors.New("a statement balance is required to reconcile")

	// ErrReconciledTransaction rejects a selection containing an already
	// reconciled line.
	ErrReconciledTransaction = errors.New("a selected transaction is already reconciled")

	// ErrTransactionAfterStatement rejects a selection containing a line
	// dated after the statement. Only lines from before the statement date
	// are candidates; later ones belong to the next statement.
	ErrTransactionAfterStatement = errors.New("a selected transaction is dated after the statement date")
)

// Statement is the user-entered side of a reconciliation session. Balance is
// in the value convention the statement itself uses; the account type's flip
// converts it to the stored credit/debit convention.
type Statement struct {
	Date    time.Time
	Balance decimal.Decimal
}

// Session pairs an account with a statement and the prior checkpoint.
type Session struct {
	Account   *account.Account
	Statement Statement
}

// Summary is the arithmetic shown for a candidate selection.
type Summary struct {
	CreditSum    decimal.Decimal
	DebitSum     decimal.Decimal // positive magnitude
	NetChange    decimal.Decimal
	OutOfBalance decimal.Decimal
}

// Balanced reports whether the selection zeroes out at currency precision.
func (s Summary) Balanced() bool {
	return s.OutOfBalance.Round(money.DisplayPlaces).IsZero()
}

// Summarize computes the session totals for a selected subset of lines:
//
//	net_change    = credit_sum - debit_sum
//	out_of_balance = (flip(statement) - flip(prior)) - net_change
//
// where flip converts value amounts to the stored credit/debit convention.
// The account's reconciled balance is already stored flipped; the statement
// balance arrives in value convention and is converted here. An empty
// selection yields a zero net change.
func (s *Session) Summarize(selected []*journal.Transaction) Summary {
	totals := journal.SumTotals(selected)
	statement := s.Account.Type.CreditDebitAmount(s.Statement.Balance)
	target := statement.Sub(s.Account.ReconciledBalance)
	return Summary{
		CreditSum:    totals.CreditTotal,
		DebitSum:     totals.DebitMagnitude(),
		NetChange:    totals.NetChange,
		OutOfBalance: target.Sub(totals.NetChange),
	}
}

// Validate checks a commit attempt: the statement date must not precede the
// last checkpoint, every selected line must be unreconciled and dated on or
// before the statement, and the selection must zero out. Returns the summary
// alongside any error so the caller can surface the figures with the failure.
func (s *Session) Validate(selected []*journal.Transaction) (Summary, error) {
	if s.Account.LastReconciled != nil && s.Statement.Date.Before(*s.Account.LastReconciled) {
		return Summary{}, ErrStatementBeforeLastReconciled
	}
	for _, line := range selected {
		if line.Reconciled {
			return Summary{}, ErrReconciledTransaction
		}
		if line.Date.After(s.Statement.Date) {
			return Summary{}, ErrTransactionAfterStatement
		}
	}
	summary := s.Summarize(selected)
	if !summary.Balanced() {
		return summary, ErrOutOfBalance
	}
	return summary, nil
}

// CheckpointBalance returns the statement balance converted to the stored
// credit/debit convention, the value persisted as the account's new
// reconciled balance on commit.
func (s *Session) CheckpointBalance() decimal.Decimal {
	return s.Account.Type.CreditDebitAmount(s.Statement.Balance)
}
