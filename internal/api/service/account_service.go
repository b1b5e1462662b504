package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/cache"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/journal"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	journalRepo journal.Repository
	balances    cache.Cache[uuid.UUID, decimal.Decimal]
	balanceTTL  time.Duration
}

// NewAccountService creates a new account service. The cache holds computed
// value balances; postings invalidate affected entries.
func NewAccountService(accountRepo account.Repository, journalRepo journal.Repository, balances cache.Cache[uuid.UUID, decimal.Decimal], balanceTTL time.Duration) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		balances:    balances,
		balanceTTL:  balanceTTL,
	}
}

// CreateHeader creates a grouping header, inheriting the parent's type when a
// parent is given.
func (s *AccountServiceImpl) CreateHeader(ctx context.Context, name, slug string, accountType account.Type, parentID *uuid.UUID) (*account.Header, error) {
	var parent *account.Header
	if parentID != nil {
		headers, err := s.accountRepo.ListHeaders(ctx)
		if err != nil {
			return nil, err
		}
		for _, h := range headers {
			if h.ID == *parentID {
				parent = h
				break
			}
		}
		if parent == nil {
			return nil, account.ErrAccountNotFound{Ref: parentID.String()}
		}
	}

	header, err := account.NewHeader(name, slug, accountType, parent)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.CreateHeader(ctx, header); err != nil {
		return nil, err
	}

	return header, nil
}

// CreateAccount creates an account under the given header.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, name, slug string, parentID uuid.UUID, bank bool) (*account.Account, error) {
	headers, err := s.accountRepo.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}
	var parent *account.Header
	for _, h := range headers {
		if h.ID == parentID {
			parent = h
			break
		}
	}
	if parent == nil {
		return nil, account.ErrAccountNotFound{Ref: parentID.String()}
	}

	acc, err := account.NewAccount(name, slug, parent, bank)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// Chart returns the chart of accounts as a tree with derived numbers and
// subtree totals.
func (s *AccountServiceImpl) Chart(ctx context.Context) ([]*ChartNode, error) {
	headers, err := s.accountRepo.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	chart, err := account.BuildChart(headers, accounts)
	if err != nil {
		return nil, err
	}

	accountsByHeader := make(map[uuid.UUID][]*account.Account)
	for _, a := range accounts {
		accountsByHeader[a.ParentID] = append(accountsByHeader[a.ParentID], a)
	}
	childrenByParent := make(map[uuid.UUID][]*account.Header)
	for _, h := range headers {
		if h.ParentID != nil {
			childrenByParent[*h.ParentID] = append(childrenByParent[*h.ParentID], h)
		}
	}

	var build func(h *account.Header) (*ChartNode, error)
	build = func(h *account.Header) (*ChartNode, error) {
		number, err := chart.HeaderNumber(h.ID)
		if err != nil {
			return nil, err
		}
		total, err := chart.SubtreeValueBalance(h.ID)
		if err != nil {
			return nil, err
		}
		node := &ChartNode{Header: h, Number: number, Total: total}
		for _, a := range accountsByHeader[h.ID] {
			accNumber, err := chart.AccountNumber(a)
			if err != nil {
				return nil, err
			}
			value, err := s.ValueBalance(ctx, a)
			if err != nil {
				return nil, err
			}
			node.Accounts = append(node.Accounts, &ChartAccount{Account: a, Number: accNumber, Value: value})
		}
		for _, child := range childrenByParent[h.ID] {
			childNode, err := build(child)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, childNode)
		}
		return node, nil
	}

	var roots []*ChartNode
	for _, root := range chart.Roots() {
		node, err := build(root)
		if err != nil {
			return nil, err
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// BankAccounts lists the active bank-flagged accounts with derived numbers
// and display balances, the accounts the bank journals draw on.
func (s *AccountServiceImpl) BankAccounts(ctx context.Context) ([]*ChartAccount, error) {
	banks, err := s.accountRepo.ListBankAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(banks) == 0 {
		return []*ChartAccount{}, nil
	}

	headers, err := s.accountRepo.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	chart, err := account.BuildChart(headers, accounts)
	if err != nil {
		return nil, err
	}

	result := make([]*ChartAccount, 0, len(banks))
	for _, a := range banks {
		number, err := chart.AccountNumber(a)
		if err != nil {
			return nil, err
		}
		value, err := s.ValueBalance(ctx, a)
		if err != nil {
			return nil, err
		}
		result = append(result, &ChartAccount{Account: a, Number: number, Value: value})
	}
	return result, nil
}

// GetBySlug retrieves an account by its URL slug.
func (s *AccountServiceImpl) GetBySlug(ctx context.Context, slug string) (*account.Account, error) {
	return s.accountRepo.GetAccountBySlug(ctx, slug)
}

// Ledger returns the account's register over the window with running value
// balances.
func (s *AccountServiceImpl) Ledger(ctx context.Context, slug string, start, stop time.Time) (*Ledger, error) {
	acc, err := s.accountRepo.GetAccountBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	headers, err := s.accountRepo.ListHeaders(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	chart, err := account.BuildChart(headers, accounts)
	if err != nil {
		return nil, err
	}
	number, err := chart.AccountNumber(acc)
	if err != nil {
		return nil, err
	}

	// Opening balance covers everything before the window.
	opening := decimal.Zero
	if !start.IsZero() {
		opening, err = s.journalRepo.SumBalanceDeltas(ctx, acc.ID, time.Time{}, start.AddDate(0, 0, -1))
		if err != nil {
			return nil, err
		}
	}

	lines, err := s.journalRepo.ListTransactionsByAccount(ctx, acc.ID, start, stop)
	if err != nil {
		return nil, err
	}

	running := opening
	ledgerLines := make([]LedgerLine, 0, len(lines))
	for _, line := range lines {
		running = running.Add(line.BalanceDelta)
		ledgerLines = append(ledgerLines, LedgerLine{
			Transaction:    line,
			RunningBalance: acc.Type.ValueAmount(running),
		})
	}

	value, err := s.ValueBalance(ctx, acc)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		Account:        acc,
		Number:         number,
		ValueBalance:   value,
		OpeningBalance: acc.Type.ValueAmount(opening),
		Lines:          ledgerLines,
		Totals:         journal.SumTotals(lines),
	}, nil
}

// ValueBalance returns the display balance of an account. The Current Year
// Earnings account derives its figure from the sum of every profit-and-loss
// balance instead of its own stored balance.
func (s *AccountServiceImpl) ValueBalance(ctx context.Context, acct *account.Account) (decimal.Decimal, error) {
	if cached, ok := s.balances.Get(acct.ID); ok {
		return cached, nil
	}

	var value decimal.Decimal
	if acct.Name == account.EarningsAccountName {
		plAccounts, err := s.accountRepo.ListAccountsByTypes(ctx, []account.Type{
			account.TypeIncome,
			account.TypeCostOfSales,
			account.TypeExpense,
			account.TypeOtherIncome,
			account.TypeOtherExpense,
		})
		if err != nil {
			return decimal.Zero, err
		}
		sum := decimal.Zero
		for _, a := range plAccounts {
			sum = sum.Add(a.Balance)
		}
		value = acct.Type.ValueAmount(sum)
	} else {
		value = acct.ValueBalance()
	}

	s.balances.Set(acct.ID, value, s.balanceTTL)
	return value, nil
}

// InvalidateBalances drops cached balances after a posting. The earnings
// figure depends on every profit-and-loss account, so the whole cache is
// cleared rather than tracking that dependency per entry.
func (s *AccountServiceImpl) InvalidateBalances(ids ...uuid.UUID) {
	s.balances.Clear()
}
