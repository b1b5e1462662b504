// Package history holds the archived per-month account figures produced at
// fiscal-year close. Rows are write-once: they are created by the close
// pipeline and never mutated afterward.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
)

// Tab names the two presentation groups for archived figures.
type Tab string

const (
	TabBalance       Tab = "BALANCE"
	TabProfitAndLoss Tab = "PROFIT_AND_LOSS"
)

// HistoricalAccount is an immutable snapshot of one account for one month.
//
// Amount is stored in the credit/debit convention. For balance-sheet types it
// is the end-of-month balance; for profit-and-loss types it is the month's
// net change. AccountID is kept as a soft link: the snapshot outlives the
// account it was taken from.
type HistoricalAccount struct {
	ID        uuid.UUID       `json:"id"`
	AccountID *uuid.UUID      `json:"account_id,omitempty"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Type      account.Type    `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Month     time.Time       `json:"month"` // first day of the archived month
	CreatedAt time.Time       `json:"created_at"`
}

// NewHistoricalAccount snapshots an account figure for the month containing
// the given date.
func NewHistoricalAccount(acct *account.Account, number string, amount decimal.Decimal, month time.Time) *HistoricalAccount {
	id := acct.ID
	return &HistoricalAccount{
		ID:        uuid.New(),
		AccountID: &id,
		Number:    number,
		Name:      acct.Name,
		Type:      acct.Type,
		Amount:    amount,
		Month:     time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}
}

// ValueAmount returns the display amount: debit-normal types are negated so
// that debit balances read as positive values.
func (h *HistoricalAccount) ValueAmount() decimal.Decimal {
	return h.Type.ValueAmount(h.Amount)
}

// FlipBalance mirrors account.Type.FlipBalance for the archived type.
func (h *HistoricalAccount) FlipBalance() bool {
	return h.Type.FlipBalance()
}

// Tab returns the presentation tab the snapshot belongs to.
func (h *HistoricalAccount) Tab() Tab {
	if h.Type.IsBalanceSheet() {
		return TabBalance
	}
	return TabProfitAndLoss
}
