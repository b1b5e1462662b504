// Package journal models double-entry journal entries and their transaction
// lines. Every entry owns a non-empty set of signed lines that sum to zero.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyMemo          = errors.New("entry memo cannot be empty")
	ErrCheckOrACH         = errors.New("either a check number or ACH status is required, not both")
	ErrVoidEntry          = errors.New("transactions cannot be added to a void entry")
	ErrNotBankSpending    = errors.New("only bank spending entries can be voided")
	ErrOutsideFiscalYear  = errors.New("the entry date must be in the current fiscal year")
	ErrMissingMainAccount = errors.New("bank entries require a bank account for the main transaction")
)

// Kind distinguishes general journal entries from the two bank journals.
type Kind string

const (
	KindGeneral       Kind = "GENERAL"
	KindBankSpending  Kind = "BANK_SPENDING"
	KindBankReceiving Kind = "BANK_RECEIVING"
)

// Entry is the header of a journal entry.
//
// General entries carry only the common fields. Bank spending entries credit
// a bank account through MainTransactionID while debiting their other lines,
// and additionally carry CheckNumber xor ACHPayment, a Payee and the Void
// flag. Bank receiving entries debit the bank account and carry a Payor.
type Entry struct {
	ID       uuid.UUID  `json:"id"`
	Sequence int64      `json:"sequence"` // per-kind display number
	Kind     Kind       `json:"kind"`
	Date     time.Time  `json:"date"`
	Memo     string     `json:"memo"`
	Comments string     `json:"comments,omitempty"`
	EventID  *uuid.UUID `json:"event_id,omitempty"`

	CheckNumber       string     `json:"check_number,omitempty"`
	ACHPayment        bool       `json:"ach_payment,omitempty"`
	Payee             string     `json:"payee,omitempty"`
	Payor             string     `json:"payor,omitempty"`
	Void              bool       `json:"void,omitempty"`
	MainTransactionID *uuid.UUID `json:"main_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntry creates a general journal entry header.
func NewEntry(date time.Time, memo, comments string, eventID *uuid.UUID) (*Entry, error) {
	if memo == "" {
		return nil, ErrEmptyMemo
	}
	now := time.Now()
	return &Entry{
		ID:        uuid.New(),
		Kind:      KindGeneral,
		Date:      date,
		Memo:      memo,
		Comments:  comments,
		EventID:   eventID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the header invariants that do not depend on the lines.
func (e *Entry) Validate() error {
	if e.Memo == "" {
		return ErrEmptyMemo
	}
	if e.Kind == KindBankSpending {
		if e.ACHPayment == (e.CheckNumber != "") {
			return ErrCheckOrACH
		}
	}
	return nil
}

// Number formats the display number of the entry: GJ#000123 for general
// entries, CR#000123 for bank receiving, the check number as CD#000123 for
// bank spending, or ##ACH## for ACH payments.
func (e *Entry) Number() string {
	switch e.Kind {
	case KindBankSpending:
		if e.ACHPayment {
			return "##ACH##"
		}
		return fmt.Sprintf("CD#%06s", e.CheckNumber)
	case KindBankReceiving:
		return fmt.Sprintf("CR#%06d", e.Sequence)
	default:
		return fmt.Sprintf("GJ#%06d", e.Sequence)
	}
}

// MarkVoid voids a bank spending entry. Voiding is recorded in the memo; the
// caller is responsible for deleting the entry's lines and zeroing the main
// transaction.
func (e *Entry) MarkVoid() error {
	if e.Kind != KindBankSpending {
		return ErrNotBankSpending
	}
	e.Void = true
	if !strings.Contains(e.Memo, "VOID") {
		e.Memo += " VOID"
	}
	e.UpdatedAt = time.Now()
	return nil
}
