package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/shared"
	"github.com/coop-bookkeeping/internal/platform/messaging/producers"
)

// FiscalYearServiceImpl implements the FiscalYearService interface
type FiscalYearServiceImpl struct {
	logger         *slog.Logger
	fiscalYearRepo fiscalyear.Repository
	publisher      producers.MessagePublisher
	auditRepo      audit.Repository
}

// NewFiscalYearService creates a new fiscal year service
func NewFiscalYearService(
	logger *slog.Logger,
	fiscalYearRepo fiscalyear.Repository,
	publisher producers.MessagePublisher,
	auditRepo audit.Repository,
) FiscalYearService {
	return &FiscalYearServiceImpl{
		logger:         logger,
		fiscalYearRepo: fiscalYearRepo,
		publisher:      publisher,
		auditRepo:      auditRepo,
	}
}

// Current returns the start of the current fiscal year and the latest
// recorded year. Both are zero values when no year exists yet.
func (s *FiscalYearServiceImpl) Current(ctx context.Context) (time.Time, *fiscalyear.FiscalYear, error) {
	years, err := s.fiscalYearRepo.ListNewestFirst(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}
	var latest *fiscalyear.FiscalYear
	if len(years) > 0 {
		latest = years[0]
	}
	return fiscalyear.CurrentStart(years), latest, nil
}

// RequestClose validates the parameters of a close request and hands it to
// the year-close worker over the message bus. The books are not touched here;
// the worker owns the archival transaction.
func (s *FiscalYearServiceImpl) RequestClose(ctx context.Context, year, endMonth, period int, excludedAccountIDs []uuid.UUID, correlationID string) (*shared.CloseRequest, error) {
	candidate, err := fiscalyear.New(year, endMonth, period)
	if err != nil {
		return nil, err
	}

	years, err := s.fiscalYearRepo.ListNewestFirst(ctx)
	if err != nil {
		return nil, err
	}
	if len(years) > 0 && !candidate.EndDate().After(years[0].EndDate()) {
		return nil, fiscalyear.ErrNotAfterLatest
	}

	request := &shared.CloseRequest{
		RequestID:          uuid.New(),
		Year:               year,
		EndMonth:           endMonth,
		Period:             period,
		ExcludedAccountIDs: excludedAccountIDs,
		CorrelationID:      correlationID,
		RequestedAt:        time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, request.RequestID.String(), request); err != nil {
		return nil, fmt.Errorf("failed to publish close request: %w", err)
	}

	record := audit.NewRecord(audit.ActionFiscalYearCloseRequested, request.RequestID, correlationID, map[string]any{
		"year":      year,
		"end_month": endMonth,
		"period":    period,
		"excluded":  len(excludedAccountIDs),
	})
	if err := s.auditRepo.Append(ctx, record); err != nil {
		s.logger.Error("Failed to append audit record", "action", string(record.Action), "error", err)
	}

	s.logger.Info("Fiscal year close requested",
		"request_id", request.RequestID.String(),
		"year", year,
		"end_month", endMonth)

	return request, nil
}
