package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/history"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// HistoryRepository implements the history.Repository interface for PostgreSQL
type HistoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewHistoryRepository creates a new PostgreSQL history repository.
func NewHistoryRepository(logger *slog.Logger, db *persistence.PostgresDB) history.Repository {
	return &HistoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *HistoryRepository) WithTx(tx pgx.Tx) history.Repository {
	return &HistoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const historicalColumns = `id, account_id, number, name, type, amount, month, created_at`

func scanHistorical(row pgx.Row) (*history.HistoricalAccount, error) {
	var h history.HistoricalAccount
	var hType int
	err := row.Scan(
		&h.ID,
		&h.AccountID,
		&h.Number,
		&h.Name,
		&hType,
		&h.Amount,
		&h.Month,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Type = account.Type(hType)
	return &h, nil
}

// Create stores a snapshot. The (month, name) pair is unique; a second write
// for the same pair is a write-once violation.
func (r *HistoryRepository) Create(ctx context.Context, snapshot *history.HistoricalAccount) error {
	query := `
		INSERT INTO historical_accounts (` + historicalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		snapshot.ID,
		snapshot.AccountID,
		snapshot.Number,
		snapshot.Name,
		int(snapshot.Type),
		snapshot.Amount,
		snapshot.Month,
		snapshot.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return history.ErrAlreadyArchived{Name: snapshot.Name, Month: snapshot.Month}
		}
		r.logger.Error("Failed to create historical account", "error", err)
		return fmt.Errorf("failed to create historical account: %w", err)
	}

	return nil
}

// ListByMonth returns every snapshot for the given month ordered by account
// number, the order the archive pages display.
func (r *HistoryRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]*history.HistoricalAccount, error) {
	query := `
		SELECT ` + historicalColumns + `
		FROM historical_accounts
		WHERE month = $1
		ORDER BY number
	`
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	rows, err := r.querier.Query(ctx, query, firstOfMonth)
	if err != nil {
		r.logger.Error("Failed to list historical accounts", "error", err)
		return nil, fmt.Errorf("failed to list historical accounts: %w", err)
	}
	defer rows.Close()

	var snapshots []*history.HistoricalAccount
	for rows.Next() {
		snapshot, err := scanHistorical(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan historical account: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate historical accounts: %w", err)
	}

	return snapshots, nil
}

// MonthExists reports whether any snapshot exists for the given month.
func (r *HistoryRepository) MonthExists(ctx context.Context, year int, month time.Month) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM historical_accounts WHERE month = $1)`
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	var exists bool
	err := r.querier.QueryRow(ctx, query, firstOfMonth).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check archived month", "error", err)
		return false, fmt.Errorf("failed to check archived month: %w", err)
	}

	return exists, nil
}
