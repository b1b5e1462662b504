package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/money"
)

// LineInput is one submitted line of an entry, before it becomes a
// Transaction. Exactly one of Debit and Credit must be a positive amount.
type LineInput struct {
	AccountID uuid.UUID
	Detail    string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	EventID   *uuid.UUID
}

// BalanceDelta folds the debit/credit pair into the signed stored convention.
func (l LineInput) BalanceDelta() decimal.Decimal {
	if !l.Debit.IsZero() {
		return l.Debit.Neg()
	}
	return l.Credit
}

// ValidationError describes a single recoverable rule violation. Line is the
// zero-based index of the offending submitted line, or -1 for entry-level
// violations.
type ValidationError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// AccountChecker tests whether an account may be charged.
type AccountChecker interface {
	Active(id uuid.UUID) bool
}

// ValidateLines enforces the double-entry rules on a submitted entry:
//
//   - at least two lines, each with exactly one positive side
//   - amounts limited to 2 decimal places
//   - every line charged to a known, active account
//   - the entry date inside the current fiscal year (fiscalYearStart may be
//     zero when no fiscal year exists yet)
//   - signed deltas summing to exactly zero
//
// All violations are collected rather than returned one at a time, so a
// client can surface them per line the way a formset does.
func ValidateLines(date time.Time, lines []LineInput, accounts AccountChecker, fiscalYearStart time.Time) []ValidationError {
	var errs []ValidationError

	if !fiscalYearStart.IsZero() && date.Before(fiscalYearStart) {
		errs = append(errs, ValidationError{Line: -1, Message: ErrOutsideFiscalYear.Error()})
	}
	if len(lines) < 2 {
		errs = append(errs, ValidationError{Line: -1, Message: "an entry requires at least two lines"})
		return errs
	}

	balance := decimal.Zero
	for i, line := range lines {
		hasDebit := !line.Debit.IsZero()
		hasCredit := !line.Credit.IsZero()
		switch {
		case hasDebit && hasCredit:
			errs = append(errs, ValidationError{Line: i, Message: "enter only one debit or credit per line"})
			continue
		case !hasDebit && !hasCredit:
			errs = append(errs, ValidationError{Line: i, Message: "either a credit or a debit is required"})
			continue
		}
		amount := line.Debit
		if hasCredit {
			amount = line.Credit
		}
		if amount.Sign() <= 0 {
			errs = append(errs, ValidationError{Line: i, Message: "amounts must be positive"})
			continue
		}
		if !money.IsCurrency(amount) {
			errs = append(errs, ValidationError{Line: i, Message: "amounts may have at most 2 decimal places"})
			continue
		}
		if !accounts.Active(line.AccountID) {
			errs = append(errs, ValidationError{Line: i, Message: fmt.Sprintf("unknown or inactive account %s", line.AccountID)})
			continue
		}
		balance = balance.Add(line.BalanceDelta())
	}

	if len(errs) == 0 && !balance.IsZero() {
		errs = append(errs, ValidationError{
			Line:    -1,
			Message: "the total amount of credits must be equal to the total amount of debits",
		})
	}
	return errs
}

// BuildTransactions materializes validated line inputs into transaction rows
// owned by the entry. Dates are pulled from the entry header.
func BuildTransactions(entry *Entry, lines []LineInput) []*Transaction {
	now := time.Now()
	transactions := make([]*Transaction, 0, len(lines))
	for _, line := range lines {
		transactions = append(transactions, &Transaction{
			ID:           uuid.New(),
			EntryID:      entry.ID,
			AccountID:    line.AccountID,
			Detail:       line.Detail,
			BalanceDelta: line.BalanceDelta(),
			EventID:      line.EventID,
			Date:         entry.Date,
			CreatedAt:    now,
		})
	}
	return transactions
}
