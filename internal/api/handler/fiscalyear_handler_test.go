package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/shared"
)

type MockFiscalYearService struct {
	mock.Mock
}

func (m *MockFiscalYearService) Current(ctx context.Context) (time.Time, *fiscalyear.FiscalYear, error) {
	args := m.Called(ctx)
	var latest *fiscalyear.FiscalYear
	if args.Get(1) != nil {
		latest = args.Get(1).(*fiscalyear.FiscalYear)
	}
	return args.Get(0).(time.Time), latest, args.Error(2)
}

func (m *MockFiscalYearService) RequestClose(ctx context.Context, year, endMonth, period int, excludedAccountIDs []uuid.UUID, correlationID string) (*shared.CloseRequest, error) {
	args := m.Called(ctx, year, endMonth, period, excludedAccountIDs, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.CloseRequest), args.Error(1)
}

var _ service.FiscalYearService = (*MockFiscalYearService)(nil)

func TestFiscalYearHandler_RequestClose(t *testing.T) {
	logger := testLogger()

	t.Run("Accepted", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		handler := NewFiscalYearHandler(logger, mockService)

		excludedID := uuid.New()
		request := &shared.CloseRequest{
			RequestID:          uuid.New(),
			Year:               2025,
			EndMonth:           12,
			Period:             12,
			ExcludedAccountIDs: []uuid.UUID{excludedID},
			RequestedAt:        time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		}
		mockService.On("RequestClose", mock.Anything, 2025, 12, 12, []uuid.UUID{excludedID}, mock.AnythingOfType("string")).
			Return(request, nil)

		router := setupTestRouter()
		router.POST("/fiscal-years", handler.RequestClose)

		rr := postJSON(router, "/fiscal-years", CloseFiscalYearRequest{
			Year:               2025,
			EndMonth:           12,
			Period:             12,
			ExcludedAccountIDs: []string{excludedID.String()},
		})

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var body CloseRequestResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.Equal(t, request.RequestID.String(), body.RequestID)
		assert.Equal(t, 2025, body.Year)
		assert.Equal(t, "2026-01-05T10:00:00Z", body.RequestedAt)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		handler := NewFiscalYearHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/fiscal-years", handler.RequestClose)

		// The period binding only admits 12 and 13.
		rr := postJSON(router, "/fiscal-years", CloseFiscalYearRequest{
			Year:     2025,
			EndMonth: 12,
			Period:   11,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NotAfterLatest", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		handler := NewFiscalYearHandler(logger, mockService)

		mockService.On("RequestClose", mock.Anything, 2024, 6, 12, []uuid.UUID{}, mock.AnythingOfType("string")).
			Return(nil, fiscalyear.ErrNotAfterLatest)

		router := setupTestRouter()
		router.POST("/fiscal-years", handler.RequestClose)

		rr := postJSON(router, "/fiscal-years", CloseFiscalYearRequest{
			Year:     2024,
			EndMonth: 6,
			Period:   12,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "YEAR_NOT_AFTER_LATEST", envelope.Error.Code)
		mockService.AssertExpectations(t)
	})
}

func TestFiscalYearHandler_Current(t *testing.T) {
	logger := testLogger()

	t.Run("WithRecordedYear", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		handler := NewFiscalYearHandler(logger, mockService)

		latest := &fiscalyear.FiscalYear{
			ID:       uuid.New(),
			Year:     2024,
			EndMonth: 12,
			Period:   12,
		}
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mockService.On("Current", mock.Anything).Return(start, latest, nil)

		router := setupTestRouter()
		router.GET("/fiscal-years/current", handler.Current)

		rr := getRequest(router, "/fiscal-years/current")

		assert.Equal(t, http.StatusOK, rr.Code)

		var body CurrentFiscalYearResponse
		decodeData(t, rr.Body.Bytes(), &body)
		assert.Equal(t, "01/2025", body.Start)
		require.NotNil(t, body.Latest)
		assert.Equal(t, 2024, body.Latest.Year)
		mockService.AssertExpectations(t)
	})

	t.Run("NoRecordedYears", func(t *testing.T) {
		mockService := new(MockFiscalYearService)
		handler := NewFiscalYearHandler(logger, mockService)

		mockService.On("Current", mock.Anything).Return(time.Time{}, nil, nil)

		router := setupTestRouter()
		router.GET("/fiscal-years/current", handler.Current)

		rr := getRequest(router, "/fiscal-years/current")

		assert.Equal(t, http.StatusOK, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		mockService.AssertExpectations(t)
	})
}
