package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// FiscalYearRepository implements the fiscalyear.Repository interface for PostgreSQL
type FiscalYearRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFiscalYearRepository creates a new PostgreSQL fiscal year repository.
func NewFiscalYearRepository(logger *slog.Logger, db *persistence.PostgresDB) fiscalyear.Repository {
	return &FiscalYearRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *FiscalYearRepository) WithTx(tx pgx.Tx) fiscalyear.Repository {
	return &FiscalYearRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new fiscal year.
func (r *FiscalYearRepository) Create(ctx context.Context, fy *fiscalyear.FiscalYear) error {
	query := `
		INSERT INTO fiscal_years (id, year, end_month, period, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query,
		fy.ID,
		fy.Year,
		fy.EndMonth,
		fy.Period,
		fy.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create fiscal year", "error", err)
		return fmt.Errorf("failed to create fiscal year: %w", err)
	}

	return nil
}

// ListNewestFirst returns all fiscal years ordered by end date, newest first.
func (r *FiscalYearRepository) ListNewestFirst(ctx context.Context) ([]*fiscalyear.FiscalYear, error) {
	query := `
		SELECT id, year, end_month, period, created_at
		FROM fiscal_years
		ORDER BY year DESC, end_month DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list fiscal years", "error", err)
		return nil, fmt.Errorf("failed to list fiscal years: %w", err)
	}
	defer rows.Close()

	var years []*fiscalyear.FiscalYear
	for rows.Next() {
		var fy fiscalyear.FiscalYear
		if err := rows.Scan(&fy.ID, &fy.Year, &fy.EndMonth, &fy.Period, &fy.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fiscal year: %w", err)
		}
		years = append(years, &fy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fiscal years: %w", err)
	}

	return years, nil
}
