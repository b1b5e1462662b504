// Package audit defines the append-only trail of bookkeeping actions kept in
// the document store alongside the relational book of record.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action categorizes audited operations
type Action string

const (
	ActionEntryPosted              Action = "ENTRY_POSTED"
	ActionEntryVoided              Action = "ENTRY_VOIDED"
	ActionReconciliationCommitted  Action = "RECONCILIATION_COMMITTED"
	ActionFiscalYearCloseRequested Action = "FISCAL_YEAR_CLOSE_REQUESTED"
	ActionFiscalYearClosed         Action = "FISCAL_YEAR_CLOSED"
	ActionFiscalYearCloseFailed    Action = "FISCAL_YEAR_CLOSE_FAILED"
)

// Record is one audited action. Detail carries action-specific fields
// (amounts, counts, statement dates) as an open document.
type Record struct {
	ID            uuid.UUID      `json:"id" bson:"id"`
	Action        Action         `json:"action" bson:"action"`
	SubjectID     uuid.UUID      `json:"subject_id" bson:"subject_id"`
	CorrelationID string         `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Detail        map[string]any `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
}

// NewRecord stamps a record for the given action and subject.
func NewRecord(action Action, subjectID uuid.UUID, correlationID string, detail map[string]any) *Record {
	return &Record{
		ID:            uuid.New(),
		Action:        action,
		SubjectID:     subjectID,
		CorrelationID: correlationID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}
}
