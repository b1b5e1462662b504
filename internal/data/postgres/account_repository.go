// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the bookkeeping system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateHeader stores a new chart-of-accounts header.
func (r *AccountRepository) CreateHeader(ctx context.Context, header *account.Header) error {
	query := `
		INSERT INTO account_headers (id, name, slug, type, parent_id, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		header.ID,
		header.Name,
		header.Slug,
		int(header.Type),
		header.ParentID,
		header.Description,
		header.Active,
		header.CreatedAt,
		header.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateSlug{Slug: header.Slug}
		}
		r.logger.Error("Failed to create account header", "error", err)
		return fmt.Errorf("failed to create account header: %w", err)
	}

	return nil
}

// CreateAccount stores a new ledger account.
func (r *AccountRepository) CreateAccount(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, name, slug, type, parent_id, description, balance, reconciled_balance, last_reconciled, bank, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Slug,
		int(acc.Type),
		acc.ParentID,
		acc.Description,
		acc.Balance,
		acc.ReconciledBalance,
		acc.LastReconciled,
		acc.Bank,
		acc.Active,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateSlug{Slug: acc.Slug}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

const accountColumns = `id, name, slug, type, parent_id, description, balance, reconciled_balance, last_reconciled, bank, active, created_at, updated_at`

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	var accType int
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Slug,
		&accType,
		&acc.ParentID,
		&acc.Description,
		&acc.Balance,
		&acc.ReconciledBalance,
		&acc.LastReconciled,
		&acc.Bank,
		&acc.Active,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Type = account.Type(accType)
	return &acc, nil
}

// GetAccountByID retrieves an account by its ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Ref: id.String()}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetAccountBySlug retrieves an account by its URL slug
func (r *AccountRepository) GetAccountBySlug(ctx context.Context, slug string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE slug = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Ref: slug}
		}
		r.logger.Error("Failed to get account by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get account by slug: %w", err)
	}

	return acc, nil
}

// ListHeaders returns every chart-of-accounts header ordered by name.
func (r *AccountRepository) ListHeaders(ctx context.Context) ([]*account.Header, error) {
	query := `
		SELECT id, name, slug, type, parent_id, description, active, created_at, updated_at
		FROM account_headers
		ORDER BY name
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list account headers", "error", err)
		return nil, fmt.Errorf("failed to list account headers: %w", err)
	}
	defer rows.Close()

	var headers []*account.Header
	for rows.Next() {
		var h account.Header
		var hType int
		if err := rows.Scan(&h.ID, &h.Name, &h.Slug, &hType, &h.ParentID, &h.Description, &h.Active, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account header: %w", err)
		}
		h.Type = account.Type(hType)
		headers = append(headers, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account headers: %w", err)
	}

	return headers, nil
}

func (r *AccountRepository) listAccounts(ctx context.Context, query string, args ...interface{}) ([]*account.Account, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// ListAccounts returns every account ordered by name.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY name`
	return r.listAccounts(ctx, query)
}

// ListAccountsByTypes returns the accounts of the given types ordered by name.
func (r *AccountRepository) ListAccountsByTypes(ctx context.Context, types []account.Type) ([]*account.Account, error) {
	ints := make([]int, len(types))
	for i, t := range types {
		ints[i] = int(t)
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE type = ANY($1) ORDER BY name`
	return r.listAccounts(ctx, query, ints)
}

// ListBankAccounts returns the active bank-flagged accounts ordered by name.
func (r *AccountRepository) ListBankAccounts(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE bank AND active ORDER BY name`
	return r.listAccounts(ctx, query)
}

// ApplyBalanceDelta atomically adds a signed credit/debit delta to the stored
// balance of the account.
func (r *AccountRepository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to apply balance delta", "id", id.String(), "error", err)
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{Ref: id.String()}
	}

	return nil
}

// SetBalance overwrites the stored balance, used when balances are re-seeded
// after a fiscal-year close.
func (r *AccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, balance, id)
	if err != nil {
		r.logger.Error("Failed to set account balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{Ref: id.String()}
	}

	return nil
}

// MarkReconciled advances the account's reconciliation checkpoint.
func (r *AccountRepository) MarkReconciled(ctx context.Context, id uuid.UUID, statementBalance decimal.Decimal, statementDate time.Time) error {
	query := `
		UPDATE accounts
		SET reconciled_balance = $1, last_reconciled = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, statementBalance, statementDate, id)
	if err != nil {
		r.logger.Error("Failed to mark account reconciled", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark account reconciled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{Ref: id.String()}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. This should be used within a transaction when balance
// updates must not race with concurrent postings.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Ref: id.String()}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
