package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

// JournalRepository implements the journal.Repository interface for PostgreSQL
type JournalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJournalRepository creates a new PostgreSQL journal repository.
func NewJournalRepository(logger *slog.Logger, db *persistence.PostgresDB) journal.Repository {
	return &JournalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction.
func (r *JournalRepository) WithTx(tx pgx.Tx) journal.Repository {
	return &JournalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const entryColumns = `id, sequence, kind, date, memo, comments, event_id, check_number, ach_payment, payee, payor, void, main_transaction_id, created_at, updated_at`

func scanEntry(row pgx.Row) (*journal.Entry, error) {
	var e journal.Entry
	var kind string
	err := row.Scan(
		&e.ID,
		&e.Sequence,
		&kind,
		&e.Date,
		&e.Memo,
		&e.Comments,
		&e.EventID,
		&e.CheckNumber,
		&e.ACHPayment,
		&e.Payee,
		&e.Payor,
		&e.Void,
		&e.MainTransactionID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Kind = journal.Kind(kind)
	return &e, nil
}

const transactionColumns = `id, entry_id, account_id, detail, balance_delta, event_id, reconciled, date, created_at`

func scanTransaction(row pgx.Row) (*journal.Transaction, error) {
	var t journal.Transaction
	err := row.Scan(
		&t.ID,
		&t.EntryID,
		&t.AccountID,
		&t.Detail,
		&t.BalanceDelta,
		&t.EventID,
		&t.Reconciled,
		&t.Date,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateEntry stores the entry header and all of its lines. It is expected to
// run inside a transaction via WithTx so the header, the lines and the
// account balance updates commit together.
func (r *JournalRepository) CreateEntry(ctx context.Context, entry *journal.Entry, lines []*journal.Transaction) error {
	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, entryQuery,
		entry.ID,
		entry.Sequence,
		string(entry.Kind),
		entry.Date,
		entry.Memo,
		entry.Comments,
		entry.EventID,
		entry.CheckNumber,
		entry.ACHPayment,
		entry.Payee,
		entry.Payor,
		entry.Void,
		entry.MainTransactionID,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create journal entry", "error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	lineQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, line := range lines {
		_, err := r.querier.Exec(ctx, lineQuery,
			line.ID,
			line.EntryID,
			line.AccountID,
			line.Detail,
			line.BalanceDelta,
			line.EventID,
			line.Reconciled,
			line.Date,
			line.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create transaction line", "entry_id", entry.ID.String(), "error", err)
			return fmt.Errorf("failed to create transaction line: %w", err)
		}
	}

	return nil
}

// GetEntry retrieves an entry header together with its lines.
func (r *JournalRepository) GetEntry(ctx context.Context, id uuid.UUID) (*journal.Entry, []*journal.Transaction, error) {
	entryQuery := `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1`

	entry, err := scanEntry(r.querier.QueryRow(ctx, entryQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, journal.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get journal entry", "id", id.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	lineQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE entry_id = $1 ORDER BY created_at, id`

	rows, err := r.querier.Query(ctx, lineQuery, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get entry transactions: %w", err)
	}
	defer rows.Close()

	var lines []*journal.Transaction
	for rows.Next() {
		line, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return entry, lines, nil
}

// UpdateEntry updates an entry header.
func (r *JournalRepository) UpdateEntry(ctx context.Context, entry *journal.Entry) error {
	query := `
		UPDATE journal_entries
		SET date = $1, memo = $2, comments = $3, event_id = $4, check_number = $5, ach_payment = $6,
		    payee = $7, payor = $8, void = $9, main_transaction_id = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := r.querier.Exec(ctx, query,
		entry.Date,
		entry.Memo,
		entry.Comments,
		entry.EventID,
		entry.CheckNumber,
		entry.ACHPayment,
		entry.Payee,
		entry.Payor,
		entry.Void,
		entry.MainTransactionID,
		time.Now(),
		entry.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update journal entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to update journal entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journal.ErrEntryNotFound{EntryID: entry.ID}
	}

	return nil
}

// DeleteEntryLines removes every line of the entry, used when a bank spending
// entry is voided. The main transaction is excluded; it is zeroed instead so
// the entry keeps its link to the bank account.
func (r *JournalRepository) DeleteEntryLines(ctx context.Context, entryID uuid.UUID) error {
	query := `
		DELETE FROM transactions
		WHERE entry_id = $1
		  AND id <> COALESCE((SELECT main_transaction_id FROM journal_entries WHERE id = $1), '00000000-0000-0000-0000-000000000000'::uuid)
	`

	_, err := r.querier.Exec(ctx, query, entryID)
	if err != nil {
		r.logger.Error("Failed to delete entry lines", "entry_id", entryID.String(), "error", err)
		return fmt.Errorf("failed to delete entry lines: %w", err)
	}

	return nil
}

// ZeroTransaction sets a line's balance delta to zero.
func (r *JournalRepository) ZeroTransaction(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE transactions SET balance_delta = 0 WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to zero transaction", "id", id.String(), "error", err)
		return fmt.Errorf("failed to zero transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journal.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

func (r *JournalRepository) listTransactions(ctx context.Context, query string, args ...interface{}) ([]*journal.Transaction, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var lines []*journal.Transaction
	for rows.Next() {
		line, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return lines, nil
}

// ListTransactionsByAccount returns the account's lines inside the inclusive
// date window, oldest first. A zero start or stop leaves that side unbounded.
func (r *JournalRepository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID, start, stop time.Time) ([]*journal.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
		ORDER BY date, created_at, id
	`
	return r.listTransactions(ctx, query, accountID, nullableTime(start), nullableTime(stop))
}

// ListTransactionsByEvent returns every line tagged with the event, oldest
// first, for the event totals report.
func (r *JournalRepository) ListTransactionsByEvent(ctx context.Context, eventID uuid.UUID) ([]*journal.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE event_id = $1
		ORDER BY date, created_at, id
	`
	return r.listTransactions(ctx, query, eventID)
}

// ListUnreconciled returns the account's unreconciled lines dated on or
// before the cutoff, the candidate set for a reconciliation session.
func (r *JournalRepository) ListUnreconciled(ctx context.Context, accountID uuid.UUID, through time.Time) ([]*journal.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND NOT reconciled
		  AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date, created_at, id
	`
	return r.listTransactions(ctx, query, accountID, nullableTime(through))
}

// GetTransactions retrieves the lines with the given ids. Every requested id
// must exist and appear once: ANY($1) collapses repeats, so a duplicated id
// would silently shrink the result set instead of failing.
func (r *JournalRepository) GetTransactions(ctx context.Context, ids []uuid.UUID) ([]*journal.Transaction, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, journal.ErrDuplicateTransaction{TransactionID: id}
		}
		seen[id] = struct{}{}
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ANY($1) ORDER BY date, created_at, id`

	lines, err := r.listTransactions(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	if len(lines) != len(ids) {
		found := make(map[uuid.UUID]bool, len(lines))
		for _, line := range lines {
			found[line.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, journal.ErrTransactionNotFound{TransactionID: id}
			}
		}
	}

	return lines, nil
}

// MarkReconciled flags the given lines as reconciled.
func (r *JournalRepository) MarkReconciled(ctx context.Context, ids []uuid.UUID) error {
	query := `UPDATE transactions SET reconciled = TRUE WHERE id = ANY($1)`

	_, err := r.querier.Exec(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to mark transactions reconciled", "error", err)
		return fmt.Errorf("failed to mark transactions reconciled: %w", err)
	}

	return nil
}

// SumBalanceDeltas returns the signed sum over an account's lines in the
// inclusive date window.
func (r *JournalRepository) SumBalanceDeltas(ctx context.Context, accountID uuid.UUID, start, stop time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(balance_delta), 0)
		FROM transactions
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
	`

	var sum decimal.Decimal
	err := r.querier.QueryRow(ctx, query, accountID, nullableTime(start), nullableTime(stop)).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum balance deltas", "account_id", accountID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum balance deltas: %w", err)
	}

	return sum, nil
}

// SumBalanceDeltasByTypes sums the balance deltas over every account of the
// given types; it backs the Current Year Earnings figure.
func (r *JournalRepository) SumBalanceDeltasByTypes(ctx context.Context, types []int, start, stop time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(t.balance_delta), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.type = ANY($1)
		  AND ($2::timestamptz IS NULL OR t.date >= $2)
		  AND ($3::timestamptz IS NULL OR t.date <= $3)
	`

	var sum decimal.Decimal
	err := r.querier.QueryRow(ctx, query, types, nullableTime(start), nullableTime(stop)).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum balance deltas by types", "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum balance deltas by types: %w", err)
	}

	return sum, nil
}

// ListEntriesThrough returns entries dated on or before the cutoff, for
// fiscal-year purging.
func (r *JournalRepository) ListEntriesThrough(ctx context.Context, cutoff time.Time) ([]*journal.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE date <= $1 ORDER BY date, created_at`

	rows, err := r.querier.Query(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to list entries through cutoff", "error", err)
		return nil, fmt.Errorf("failed to list entries through cutoff: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return entries, nil
}

// DeleteEntry removes an entry and, via cascade, its lines.
func (r *JournalRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM journal_entries WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete journal entry", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journal.ErrEntryNotFound{EntryID: id}
	}

	return nil
}

// HasUnreconciledLines reports whether the entry holds an unreconciled line
// charged to any of the given accounts.
func (r *JournalRepository) HasUnreconciledLines(ctx context.Context, entryID uuid.UUID, accountIDs []uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE entry_id = $1 AND NOT reconciled AND account_id = ANY($2)
		)
	`

	var exists bool
	err := r.querier.QueryRow(ctx, query, entryID, accountIDs).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check unreconciled lines", "entry_id", entryID.String(), "error", err)
		return false, fmt.Errorf("failed to check unreconciled lines: %w", err)
	}

	return exists, nil
}

// NextSequence allocates the next per-kind display number.
func (r *JournalRepository) NextSequence(ctx context.Context, kind journal.Kind) (int64, error) {
	query := `
		INSERT INTO journal_sequences (kind, value)
		VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET value = journal_sequences.value + 1
		RETURNING value
	`

	var seq int64
	err := r.querier.QueryRow(ctx, query, string(kind)).Scan(&seq)
	if err != nil {
		r.logger.Error("Failed to allocate journal sequence", "kind", string(kind), "error", err)
		return 0, fmt.Errorf("failed to allocate journal sequence: %w", err)
	}

	return seq, nil
}

// nullableTime maps a zero time to NULL so window bounds can be left open.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
