// Package fiscalyear models the accounting periods that scope journal
// entries and drive the year-close archival.
package fiscalyear

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPeriod  = errors.New("fiscal year period must be 12 or 13 months")
	ErrInvalidMonth   = errors.New("fiscal year end month must be between 1 and 12")
	ErrNotAfterLatest = errors.New("a new fiscal year must end after the previous one")
)

// FiscalYear records the end month of one accounting period.
type FiscalYear struct {
	ID        uuid.UUID `json:"id"`
	Year      int       `json:"year"`
	EndMonth  int       `json:"end_month"`
	Period    int       `json:"period"` // 12 or 13 months
	CreatedAt time.Time `json:"created_at"`
}

// New creates a fiscal year ending in the given month.
func New(year, endMonth, period int) (*FiscalYear, error) {
	if period != 12 && period != 13 {
		return nil, ErrInvalidPeriod
	}
	if endMonth < 1 || endMonth > 12 {
		return nil, ErrInvalidMonth
	}
	return &FiscalYear{
		ID:        uuid.New(),
		Year:      year,
		EndMonth:  endMonth,
		Period:    period,
		CreatedAt: time.Now(),
	}, nil
}

// EndDate returns the last day of the fiscal year.
func (fy *FiscalYear) EndDate() time.Time {
	firstOfNext := time.Date(fy.Year, time.Month(fy.EndMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// StartMonth returns the first day of the fiscal year's opening month.
func (fy *FiscalYear) StartMonth() time.Time {
	return time.Date(fy.Year, time.Month(fy.EndMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(fy.Period - 1), 0)
}

// CurrentStart determines the start of the current fiscal year from the
// recorded years, newest first.
//
// With no recorded years it returns the zero time (entries are unbounded).
// With one year, the start is period-1 months before that year's end month.
// With several, the current year starts the month after the second-newest
// year ended.
func CurrentStart(years []*FiscalYear) time.Time {
	switch len(years) {
	case 0:
		return time.Time{}
	case 1:
		return years[0].StartMonth()
	default:
		previous := years[1]
		return time.Date(previous.Year, time.Month(previous.EndMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}
}

// MonthsBetween lists the first day of every month from start through end,
// inclusive, for snapshot iteration at year close.
func MonthsBetween(start, end time.Time) []time.Time {
	var months []time.Time
	current := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !current.After(last) {
		months = append(months, current)
		current = current.AddDate(0, 1, 0)
	}
	return months
}

// EndOfMonth returns the last day of the month containing the given date.
func EndOfMonth(date time.Time) time.Time {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
