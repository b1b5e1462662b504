// Package shared holds the message types exchanged between the API server
// and the year-close worker.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// CloseRequest is the Kafka message asking the worker to close the books
// into a new fiscal year.
type CloseRequest struct {
	RequestID          uuid.UUID   `json:"request_id"`
	Year               int         `json:"year"`
	EndMonth           int         `json:"end_month"`
	Period             int         `json:"period"`
	ExcludedAccountIDs []uuid.UUID `json:"excluded_account_ids,omitempty"`
	CorrelationID      string      `json:"correlation_id"`
	RequestedAt        time.Time   `json:"requested_at"`
}

// CloseFailureReason categorizes terminal close failures for the DLQ.
type CloseFailureReason string

const (
	CloseFailureNoPreviousYear   CloseFailureReason = "NO_PREVIOUS_FISCAL_YEAR"
	CloseFailureNotAfterLatest   CloseFailureReason = "YEAR_NOT_AFTER_LATEST"
	CloseFailureSnapshotConflict CloseFailureReason = "SNAPSHOT_ALREADY_EXISTS"
	CloseFailureMissingAccount   CloseFailureReason = "EARNINGS_ACCOUNT_MISSING"
	CloseFailureUnknown          CloseFailureReason = "UNKNOWN_ERROR"
)
