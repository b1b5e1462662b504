package service

import (
	"context"
	"time"

	"github.com/coop-bookkeeping/internal/domain/history"
)

// HistoryServiceImpl implements the HistoryService interface
type HistoryServiceImpl struct {
	historyRepo history.Repository
}

// NewHistoryService creates a new history service
func NewHistoryService(historyRepo history.Repository) HistoryService {
	return &HistoryServiceImpl{historyRepo: historyRepo}
}

// Month returns the archived figures for one month, split into the balance
// and profit-and-loss tabs, with adjacent-month navigation.
func (s *HistoryServiceImpl) Month(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	snapshots, err := s.historyRepo.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, history.ErrNoHistory{}
	}

	view := &MonthView{Month: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
	for _, snapshot := range snapshots {
		if snapshot.Tab() == history.TabBalance {
			view.Balance = append(view.Balance, snapshot)
		} else {
			view.ProfitAndLoss = append(view.ProfitAndLoss, snapshot)
		}
	}

	previous := view.Month.AddDate(0, -1, 0)
	if exists, err := s.historyRepo.MonthExists(ctx, previous.Year(), previous.Month()); err != nil {
		return nil, err
	} else if exists {
		view.HasPrevious = true
		view.Previous = previous
	}

	next := view.Month.AddDate(0, 1, 0)
	if exists, err := s.historyRepo.MonthExists(ctx, next.Year(), next.Month()); err != nil {
		return nil, err
	} else if exists {
		view.HasNext = true
		view.Next = next
	}

	return view, nil
}
