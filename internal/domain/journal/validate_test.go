package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chartStub marks a fixed set of account IDs as active.
type chartStub map[uuid.UUID]bool

func (c chartStub) Active(id uuid.UUID) bool { return c[id] }

func TestLineInput_BalanceDelta(t *testing.T) {
	debit := LineInput{Debit: decimal.NewFromInt(50)}
	credit := LineInput{Credit: decimal.NewFromInt(50)}

	assert.True(t, debit.BalanceDelta().Equal(decimal.NewFromInt(-50)))
	assert.True(t, credit.BalanceDelta().Equal(decimal.NewFromInt(50)))
}

func TestValidateLines(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	expense := uuid.New()
	income := uuid.New()
	accounts := chartStub{expense: true, income: true}

	balanced := []LineInput{
		{AccountID: expense, Debit: decimal.NewFromInt(50)},
		{AccountID: income, Credit: decimal.NewFromInt(50)},
	}

	t.Run("Valid", func(t *testing.T) {
		errs := ValidateLines(date, balanced, accounts, time.Time{})
		assert.Empty(t, errs)
	})

	t.Run("TooFewLines", func(t *testing.T) {
		errs := ValidateLines(date, balanced[:1], accounts, time.Time{})
		require.Len(t, errs, 1)
		assert.Equal(t, -1, errs[0].Line)
	})

	t.Run("BothSidesOnOneLine", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: expense, Debit: decimal.NewFromInt(50), Credit: decimal.NewFromInt(50)},
			{AccountID: income, Credit: decimal.NewFromInt(50)},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.NotEmpty(t, errs)
		assert.Equal(t, 0, errs[0].Line)
	})

	t.Run("NeitherSideOnOneLine", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: expense},
			{AccountID: income, Credit: decimal.NewFromInt(50)},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.NotEmpty(t, errs)
		assert.Equal(t, 0, errs[0].Line)
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: expense, Debit: decimal.NewFromInt(-50)},
			{AccountID: income, Credit: decimal.NewFromInt(50)},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0].Message, "positive")
	})

	t.Run("TooManyDecimalPlaces", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: expense, Debit: decimal.RequireFromString("49.999")},
			{AccountID: income, Credit: decimal.RequireFromString("49.999")},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.Len(t, errs, 2)
		assert.Contains(t, errs[0].Message, "2 decimal places")
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: uuid.New(), Debit: decimal.NewFromInt(50)},
			{AccountID: income, Credit: decimal.NewFromInt(50)},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.NotEmpty(t, errs)
		assert.Contains(t, errs[0].Message, "unknown or inactive account")
	})

	t.Run("OutOfBalance", func(t *testing.T) {
		lines := []LineInput{
			{AccountID: expense, Debit: decimal.NewFromInt(50)},
			{AccountID: income, Credit: decimal.NewFromInt(40)},
		}
		errs := ValidateLines(date, lines, accounts, time.Time{})
		require.Len(t, errs, 1)
		assert.Equal(t, -1, errs[0].Line)
		assert.Contains(t, errs[0].Message, "credits must be equal")
	})

	t.Run("DateBeforeFiscalYearStart", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		errs := ValidateLines(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), balanced, accounts, start)
		require.Len(t, errs, 1)
		assert.Equal(t, -1, errs[0].Line)
		assert.Equal(t, ErrOutsideFiscalYear.Error(), errs[0].Message)
	})
}

func TestBuildTransactions(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	entry, err := NewEntry(date, "March dues", "", nil)
	require.NoError(t, err)
	expense := uuid.New()
	income := uuid.New()
	eventID := uuid.New()

	lines := BuildTransactions(entry, []LineInput{
		{AccountID: expense, Detail: "supplies", Debit: decimal.NewFromInt(50)},
		{AccountID: income, Credit: decimal.NewFromInt(50), EventID: &eventID},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, entry.ID, lines[0].EntryID)
	assert.Equal(t, date, lines[0].Date)
	assert.True(t, lines[0].BalanceDelta.Equal(decimal.NewFromInt(-50)))
	assert.True(t, lines[0].IsDebit())
	assert.True(t, lines[1].IsCredit())
	require.NotNil(t, lines[1].EventID)
	assert.Equal(t, eventID, *lines[1].EventID)
}

func TestSumTotals(t *testing.T) {
	lines := []*Transaction{
		{BalanceDelta: decimal.NewFromInt(-40)},
		{BalanceDelta: decimal.NewFromInt(-35)},
		{BalanceDelta: decimal.NewFromInt(100)},
	}

	totals := SumTotals(lines)

	assert.True(t, totals.DebitTotal.Equal(decimal.NewFromInt(-75)))
	assert.True(t, totals.DebitMagnitude().Equal(decimal.NewFromInt(75)))
	assert.True(t, totals.CreditTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, totals.NetChange.Equal(decimal.NewFromInt(25)))
}
