// Package account models the chart of accounts: typed accounts grouped under
// a tree of headers, with the debit/credit sign conventions used by the rest
// of the ledger.
package account

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrEmptyName     = errors.New("account name cannot be empty")
	ErrInvalidSlug   = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrInvalidType   = errors.New("account type must be between Asset and OtherExpense")
	ErrMissingParent = errors.New("account requires a parent header")
)

// Type classifies accounts and headers. The ordinal values are part of the
// stored data and of the full account number format, so they never change.
type Type int

const (
	TypeAsset Type = iota + 1
	TypeLiability
	TypeEquity
	TypeIncome
	TypeCostOfSales
	TypeExpense
	TypeOtherIncome
	TypeOtherExpense
)

var typeNames = map[Type]string{
	TypeAsset:        "Asset",
	TypeLiability:    "Liability",
	TypeEquity:       "Equity",
	TypeIncome:       "Income",
	TypeCostOfSales:  "Cost of Sales",
	TypeExpense:      "Expense",
	TypeOtherIncome:  "Other Income",
	TypeOtherExpense: "Other Expense",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is one of the defined account types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsBalanceSheet reports whether accounts of this type carry a point-in-time
// balance (Asset, Liability, Equity). The remaining types are profit-and-loss
// types whose history is reported as per-period net change.
func (t Type) IsBalanceSheet() bool {
	return t >= TypeAsset && t <= TypeEquity
}

// IsProfitAndLoss reports whether this is an Income/Expense-family type.
func (t Type) IsProfitAndLoss() bool {
	return t >= TypeIncome && t <= TypeOtherExpense
}

// NormalSide is the side on which an account type's balance increases.
type NormalSide int

const (
	// CreditNormal accounts (Liability, Equity, Income, Other Income)
	// increase on credits; their stored credit/debit balance is already the
	// displayable value balance.
	CreditNormal NormalSide = iota
	// DebitNormal accounts (Asset, Cost of Sales, Expense, Other Expense)
	// increase on debits; their stored balance must be negated for display.
	DebitNormal
)

// normalSides is the explicit type-to-side mapping. Debits are stored as
// negative deltas, so debit-normal accounts flip sign when displayed.
var normalSides = map[Type]NormalSide{
	TypeAsset:        DebitNormal,
	TypeLiability:    CreditNormal,
	TypeEquity:       CreditNormal,
	TypeIncome:       CreditNormal,
	TypeCostOfSales:  DebitNormal,
	TypeExpense:      DebitNormal,
	TypeOtherIncome:  CreditNormal,
	TypeOtherExpense: DebitNormal,
}

// Side returns the normal balance side for the type.
func (t Type) Side() NormalSide {
	return normalSides[t]
}

// FlipBalance reports whether the stored credit/debit balance must be negated
// to produce the displayed value balance.
func (t Type) FlipBalance() bool {
	return t.Side() == DebitNormal
}

// ValueAmount converts a stored credit/debit amount into the value convention
// for the type: debit-normal types show debit balances as positive values.
func (t Type) ValueAmount(amount decimal.Decimal) decimal.Decimal {
	if t.FlipBalance() {
		return amount.Neg()
	}
	return amount
}

// CreditDebitAmount is the inverse of ValueAmount. The conversion is its own
// inverse; the second name exists so call sites read in the right direction.
func (t Type) CreditDebitAmount(value decimal.Decimal) decimal.Decimal {
	return t.ValueAmount(value)
}

// EarningsAccountName is the account whose value balance is derived from the
// sum of all profit-and-loss balances rather than its own stored balance.
const EarningsAccountName = "Current Year Earnings"

// RetainedEarningsName receives the earnings balance at fiscal-year close.
const RetainedEarningsName = "Retained Earnings"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Header groups accounts (and other headers) in the chart of accounts.
type Header struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Type        Type       `json:"type"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewHeader creates a root or child header. Child headers inherit the type of
// their parent.
func NewHeader(name, slug string, accountType Type, parent *Header) (*Header, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	var parentID *uuid.UUID
	if parent != nil {
		accountType = parent.Type
		id := parent.ID
		parentID = &id
	}
	if !accountType.Valid() {
		return nil, ErrInvalidType
	}
	now := time.Now()
	return &Header{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Type:      accountType,
		ParentID:  parentID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Account holds one ledger account of the chart.
//
// Balance and ReconciledBalance are stored in the credit/debit convention
// (credits positive, debits negative); use ValueBalance for display. Balance
// is a maintained aggregate over the account's transactions, not an
// authoritative figure on its own.
type Account struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	Type              Type            `json:"type"`
	ParentID          uuid.UUID       `json:"parent_id"` // owning Header
	Description       string          `json:"description,omitempty"`
	Balance           decimal.Decimal `json:"balance"`
	ReconciledBalance decimal.Decimal `json:"reconciled_balance"`
	LastReconciled    *time.Time      `json:"last_reconciled,omitempty"`
	Bank              bool            `json:"bank"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewAccount creates an account under the given header, inheriting its type.
func NewAccount(name, slug string, parent *Header, bank bool) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}
	if parent == nil {
		return nil, ErrMissingParent
	}
	now := time.Now()
	return &Account{
		ID:                uuid.New(),
		Name:              name,
		Slug:              slug,
		Type:              parent.Type,
		ParentID:          parent.ID,
		Balance:           decimal.Zero,
		ReconciledBalance: decimal.Zero,
		Bank:              bank,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// FlipBalance reports whether the account's stored balance is negated for
// display. Kept as a method because nearly every caller has an Account in
// hand, not a Type.
func (a *Account) FlipBalance() bool {
	return a.Type.FlipBalance()
}

// ValueBalance returns the displayed balance for the account.
func (a *Account) ValueBalance() decimal.Decimal {
	return a.Type.ValueAmount(a.Balance)
}

// ApplyDelta adds a signed credit/debit delta to the stored balance.
func (a *Account) ApplyDelta(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
}

// MarkReconciled advances the reconciliation checkpoint to the statement
// balance (credit/debit convention) and date.
func (a *Account) MarkReconciled(statementBalance decimal.Decimal, statementDate time.Time) {
	a.ReconciledBalance = statementBalance
	a.LastReconciled = &statementDate
	a.UpdatedAt = time.Now()
}
