package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/domain/audit"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	auditRepo audit.Repository
}

// NewAuditService creates a new audit trail query service
func NewAuditService(auditRepo audit.Repository) AuditService {
	return &AuditServiceImpl{auditRepo: auditRepo}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// BySubject returns the newest records for one subject, newest first.
func (s *AuditServiceImpl) BySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*audit.Record, error) {
	limit, offset = clampPage(limit, offset)
	return s.auditRepo.GetBySubject(ctx, subjectID, limit, offset)
}

// ByTimeRange returns the records created between start and end inclusive,
// newest first.
func (s *AuditServiceImpl) ByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.Record, error) {
	limit, offset = clampPage(limit, offset)
	return s.auditRepo.GetByTimeRange(ctx, start, end, limit, offset)
}
