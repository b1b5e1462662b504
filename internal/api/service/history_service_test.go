package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/history"
)

func TestHistoryServiceImpl_Month(t *testing.T) {
	ctx := context.Background()

	t.Run("SplitsIntoTabs", func(t *testing.T) {
		historyRepo := new(MockHistoryRepository)
		service := NewHistoryService(historyRepo)
		month := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

		snapshots := []*history.HistoricalAccount{
			{ID: uuid.New(), Number: "1-00001", Name: "Checking", Type: account.TypeAsset, Amount: decimal.NewFromInt(-900), Month: month},
			{ID: uuid.New(), Number: "4-00001", Name: "Dues", Type: account.TypeIncome, Amount: decimal.NewFromInt(300), Month: month},
			{ID: uuid.New(), Number: "6-00001", Name: "Supplies", Type: account.TypeExpense, Amount: decimal.NewFromInt(-120), Month: month},
		}

		historyRepo.On("ListByMonth", ctx, 2024, time.November).Return(snapshots, nil).Once()
		historyRepo.On("MonthExists", ctx, 2024, time.October).Return(true, nil).Once()
		historyRepo.On("MonthExists", ctx, 2024, time.December).Return(false, nil).Once()

		view, err := service.Month(ctx, 2024, time.November)

		assert.NoError(t, err)
		assert.Equal(t, month, view.Month)
		assert.Len(t, view.Balance, 1)
		assert.Len(t, view.ProfitAndLoss, 2)
		assert.True(t, view.HasPrevious)
		assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), view.Previous)
		assert.False(t, view.HasNext)
	})

	t.Run("NoHistory", func(t *testing.T) {
		historyRepo := new(MockHistoryRepository)
		service := NewHistoryService(historyRepo)

		historyRepo.On("ListByMonth", ctx, 2030, time.January).Return([]*history.HistoricalAccount{}, nil).Once()

		_, err := service.Month(ctx, 2030, time.January)

		var noHistory history.ErrNoHistory
		assert.ErrorAs(t, err, &noHistory)
	})

	t.Run("YearBoundaryNavigation", func(t *testing.T) {
		historyRepo := new(MockHistoryRepository)
		service := NewHistoryService(historyRepo)
		month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		snapshots := []*history.HistoricalAccount{
			{ID: uuid.New(), Number: "1-00001", Name: "Checking", Type: account.TypeAsset, Amount: decimal.Zero, Month: month},
		}

		historyRepo.On("ListByMonth", ctx, 2024, time.January).Return(snapshots, nil).Once()
		historyRepo.On("MonthExists", ctx, 2023, time.December).Return(true, nil).Once()
		historyRepo.On("MonthExists", ctx, 2024, time.February).Return(true, nil).Once()

		view, err := service.Month(ctx, 2024, time.January)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), view.Previous)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), view.Next)
	})
}
