package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one line of a journal entry, charged to a single account.
//
// BalanceDelta is the signed change to the account's stored balance: a
// positive value is a credit, a negative value a debit. The line's date is
// pulled from its owning entry when the entry is saved.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	EntryID      uuid.UUID       `json:"entry_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Detail       string          `json:"detail,omitempty"`
	BalanceDelta decimal.Decimal `json:"balance_delta"`
	EventID      *uuid.UUID      `json:"event_id,omitempty"`
	Reconciled   bool            `json:"reconciled"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsCredit reports whether the line sits on the credit side.
func (t *Transaction) IsCredit() bool {
	return t.BalanceDelta.Sign() > 0
}

// IsDebit reports whether the line sits on the debit side.
func (t *Transaction) IsDebit() bool {
	return t.BalanceDelta.Sign() < 0
}

// Totals aggregates a set of lines into debit/credit sums.
//
// DebitTotal keeps the stored negative sign; DebitMagnitude is the positive
// figure shown in reports. NetChange is credits plus (negative) debits.
type Totals struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	NetChange   decimal.Decimal
}

// DebitMagnitude returns the debit total as a positive display amount.
func (t Totals) DebitMagnitude() decimal.Decimal {
	return t.DebitTotal.Neg()
}

// SumTotals computes debit/credit totals and the net change for the lines.
func SumTotals(lines []*Transaction) Totals {
	totals := Totals{
		DebitTotal:  decimal.Zero,
		CreditTotal: decimal.Zero,
		NetChange:   decimal.Zero,
	}
	for _, line := range lines {
		switch {
		case line.BalanceDelta.Sign() < 0:
			totals.DebitTotal = totals.DebitTotal.Add(line.BalanceDelta)
		case line.BalanceDelta.Sign() > 0:
			totals.CreditTotal = totals.CreditTotal.Add(line.BalanceDelta)
		}
	}
	totals.NetChange = totals.CreditTotal.Add(totals.DebitTotal)
	return totals
}
