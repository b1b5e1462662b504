// Package money provides the monetary conventions shared across the ledger:
// signed credit/debit deltas, 2-decimal-place currency rounding and the
// display format used by every reporting surface.
package money

import (
	"github.com/shopspring/decimal"
)

// Amounts are persisted with 4 decimal places but all user-facing arithmetic
// and comparisons round to 2.
const DisplayPlaces = 2

// Zero is the additive identity for ledger amounts.
var Zero = decimal.Zero

// Format renders an amount as currency: "$X.XX" for non-negative values and
// "($X.XX)" for negative values. The zero amount renders as "$0.00".
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(DisplayPlaces)
	if rounded.Sign() < 0 {
		return "($" + rounded.Neg().StringFixed(DisplayPlaces) + ")"
	}
	return "$" + rounded.StringFixed(DisplayPlaces)
}

// IsCurrency reports whether the amount has no more than 2 decimal places.
// Submitted debit/credit values must satisfy this; derived balances may carry
// the full 4 stored places.
func IsCurrency(amount decimal.Decimal) bool {
	cents := amount.Mul(decimal.NewFromInt(100))
	return cents.Equal(cents.Floor())
}

// EqualCurrency compares two amounts after rounding both to 2 decimal places.
func EqualCurrency(a, b decimal.Decimal) bool {
	return a.Round(DisplayPlaces).Equal(b.Round(DisplayPlaces))
}
