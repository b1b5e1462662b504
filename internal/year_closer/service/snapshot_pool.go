package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/config"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/journal"
)

// SnapshotPool computes monthly snapshot figures on an ants worker pool, one
// task per account. The sums run on the shared connection pool, outside the
// close transaction, so they may execute concurrently.
type SnapshotPool struct {
	pool        *ants.Pool
	journalRepo journal.Repository
	logger      *slog.Logger
}

func NewSnapshotPool(cfg config.WorkerPoolConfig, journalRepo journal.Repository, logger *slog.Logger) (*SnapshotPool, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}
	return &SnapshotPool{
		pool:        pool,
		journalRepo: journalRepo,
		logger:      logger,
	}, nil
}

// ComputeMonthlyAmounts returns, per account and month, the end-of-month
// balance for balance-sheet accounts and the monthly net change for
// profit-and-loss accounts. The first error cancels nothing already running
// but is the one reported.
func (p *SnapshotPool) ComputeMonthlyAmounts(ctx context.Context, accounts []*account.Account, months []time.Time) (MonthlyAmounts, error) {
	amounts := make(MonthlyAmounts, len(accounts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, acct := range accounts {
		acct := acct
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			monthly, err := p.computeAccount(ctx, acct, months)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			amounts[acct.ID] = monthly
		})
		if err != nil {
			wg.Done()
			p.logger.Error("Failed to submit snapshot task to worker pool",
				"account_id", acct.ID.String(),
				"error", err,
			)
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return amounts, nil
}

func (p *SnapshotPool) computeAccount(ctx context.Context, acct *account.Account, months []time.Time) (map[time.Time]decimal.Decimal, error) {
	monthly := make(map[time.Time]decimal.Decimal, len(months))
	for _, month := range months {
		stop := fiscalyear.EndOfMonth(month)
		start := month
		if acct.Type.IsBalanceSheet() {
			// Point-in-time balance: everything through the month end.
			start = time.Time{}
		}
		sum, err := p.journalRepo.SumBalanceDeltas(ctx, acct.ID, start, stop)
		if err != nil {
			return nil, err
		}
		monthly[month] = sum
	}
	return monthly, nil
}

// Shutdown releases the worker pool.
func (p *SnapshotPool) Shutdown() {
	p.logger.Info("Shutting down snapshot worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

// Running returns the number of running workers in the pool.
func (p *SnapshotPool) Running() int {
	return p.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (p *SnapshotPool) Capacity() int {
	return p.pool.Cap()
}
