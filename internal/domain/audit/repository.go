package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository appends and queries audit records. There is no update or delete:
// the trail only grows.
type Repository interface {
	Append(ctx context.Context, record *Record) error
	GetBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Record, error)
	GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Record, error)
}
