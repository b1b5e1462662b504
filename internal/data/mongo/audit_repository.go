// Package mongo provides the MongoDB implementation of the audit trail.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coop-bookkeeping/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "audit_records"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a new audit record. The trail is append-only: there is no
// update or delete path.
func (r *AuditRepository) Append(ctx context.Context, record *audit.Record) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to append audit record",
			"action", string(record.Action),
			"subject_id", record.SubjectID.String(),
			"error", err)
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// GetBySubject retrieves paginated audit records for a subject.
// Results are sorted by creation time in descending order (newest first).
func (r *AuditRepository) GetBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*audit.Record, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"subject_id": subjectID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit records",
			"subject_id", subjectID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*audit.Record
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode audit records",
			"subject_id", subjectID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	return records, nil
}

// GetByTimeRange retrieves paginated audit records within the specified time
// window, newest first.
func (r *AuditRepository) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*audit.Record, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit records by time range",
			"start", start,
			"end", end,
			"error", err)
		return nil, fmt.Errorf("failed to get audit records by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*audit.Record
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode audit records",
			"start", start,
			"end", end,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	return records, nil
}
