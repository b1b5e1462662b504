package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coop-bookkeeping/internal/domain/account"
)

func testAccount(t *testing.T, name string, accountType account.Type) *account.Account {
	t.Helper()
	header, err := account.NewHeader("Header", "header", accountType, nil)
	require.NoError(t, err)
	acct, err := account.NewAccount(name, "slug", header, false)
	require.NoError(t, err)
	return acct
}

func TestNewHistoricalAccount(t *testing.T) {
	acct := testAccount(t, "Checking", account.TypeAsset)

	snapshot := NewHistoricalAccount(acct, "1-00001", decimal.NewFromInt(-500),
		time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC))

	require.NotNil(t, snapshot.AccountID)
	assert.Equal(t, acct.ID, *snapshot.AccountID)
	assert.Equal(t, "Checking", snapshot.Name)
	assert.Equal(t, "1-00001", snapshot.Number)
	assert.Equal(t, account.TypeAsset, snapshot.Type)
	// The month is normalized to its first day.
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), snapshot.Month)
}

func TestHistoricalAccount_ValueAmount(t *testing.T) {
	asset := NewHistoricalAccount(testAccount(t, "Checking", account.TypeAsset), "1-00001",
		decimal.NewFromInt(-500), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	income := NewHistoricalAccount(testAccount(t, "Dues", account.TypeIncome), "4-00001",
		decimal.NewFromInt(300), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, asset.FlipBalance())
	assert.True(t, asset.ValueAmount().Equal(decimal.NewFromInt(500)))
	assert.False(t, income.FlipBalance())
	assert.True(t, income.ValueAmount().Equal(decimal.NewFromInt(300)))
}

func TestHistoricalAccount_Tab(t *testing.T) {
	month := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	balance := NewHistoricalAccount(testAccount(t, "Checking", account.TypeAsset), "1-00001", decimal.Zero, month)
	profitAndLoss := NewHistoricalAccount(testAccount(t, "Dues", account.TypeIncome), "4-00001", decimal.Zero, month)

	assert.Equal(t, TabBalance, balance.Tab())
	assert.Equal(t, TabProfitAndLoss, profitAndLoss.Tab())
}
