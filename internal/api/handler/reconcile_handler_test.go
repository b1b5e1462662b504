package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/reconcile"
)

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Candidates(ctx context.Context, slug string, through time.Time) (*account.Account, []*journal.Transaction, error) {
	args := m.Called(ctx, slug, through)
	var acc *account.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*account.Account)
	}
	var lines []*journal.Transaction
	if args.Get(1) != nil {
		lines = args.Get(1).([]*journal.Transaction)
	}
	return acc, lines, args.Error(2)
}

func (m *MockReconcileService) Preview(ctx context.Context, slug string, input service.ReconcileInput) (*account.Account, reconcile.Summary, error) {
	args := m.Called(ctx, slug, input)
	var acc *account.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*account.Account)
	}
	return acc, args.Get(1).(reconcile.Summary), args.Error(2)
}

func (m *MockReconcileService) Commit(ctx context.Context, slug string, input service.ReconcileInput) (reconcile.Summary, error) {
	args := m.Called(ctx, slug, input)
	return args.Get(0).(reconcile.Summary), args.Error(1)
}

var _ service.ReconcileService = (*MockReconcileService)(nil)

func balancedSummary() reconcile.Summary {
	return reconcile.Summary{
		CreditSum:    decimal.NewFromInt(100),
		DebitSum:     decimal.NewFromInt(40),
		NetChange:    decimal.NewFromInt(60),
		OutOfBalance: decimal.Zero,
	}
}

func TestReconcileHandler_Candidates(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		acc := &account.Account{
			ID:     uuid.New(),
			Name:   "Checking",
			Slug:   "checking",
			Type:   account.TypeAsset,
			Bank:   true,
			Active: true,
		}
		through := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		lines := []*journal.Transaction{
			{ID: uuid.New(), EntryID: uuid.New(), AccountID: acc.ID, Date: through.AddDate(0, 0, -3), BalanceDelta: decimal.NewFromInt(-40)},
		}
		mockService.On("Candidates", mock.Anything, "checking", through).Return(acc, lines, nil)

		router := setupTestRouter()
		router.GET("/accounts/:slug/reconcile/candidates", handler.Candidates)

		rr := getRequest(router, "/accounts/checking/reconcile/candidates?through=06/30/2025")

		assert.Equal(t, http.StatusOK, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		require.Contains(t, data, "account")
		require.Contains(t, data, "lines")

		linesBytes, err := json.Marshal(data["lines"])
		require.NoError(t, err)
		var body []TransactionResponse
		require.NoError(t, json.Unmarshal(linesBytes, &body))
		require.Len(t, body, 1)
		assert.Equal(t, lines[0].ID.String(), body[0].ID)
		assert.Equal(t, "$40.00", body[0].Debit)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingThroughReturnsEverything", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		acc := &account.Account{ID: uuid.New(), Name: "Checking", Slug: "checking", Type: account.TypeAsset}
		mockService.On("Candidates", mock.Anything, "checking", time.Time{}).
			Return(acc, []*journal.Transaction{}, nil)

		router := setupTestRouter()
		router.GET("/accounts/:slug/reconcile/candidates", handler.Candidates)

		rr := getRequest(router, "/accounts/checking/reconcile/candidates")

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidThroughDate", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:slug/reconcile/candidates", handler.Candidates)

		rr := getRequest(router, "/accounts/checking/reconcile/candidates?through=2025-06-30")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Candidates", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Candidates", mock.Anything, "missing", time.Time{}).
			Return(nil, nil, account.ErrAccountNotFound{Ref: "missing"})

		router := setupTestRouter()
		router.GET("/accounts/:slug/reconcile/candidates", handler.Candidates)

		rr := getRequest(router, "/accounts/missing/reconcile/candidates")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestReconcileHandler_Preview(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		acc := &account.Account{
			ID:     uuid.New(),
			Name:   "Checking",
			Slug:   "checking",
			Type:   account.TypeAsset,
			Bank:   true,
			Active: true,
		}
		txID := uuid.New()
		mockService.On("Preview", mock.Anything, "checking", mock.MatchedBy(func(input service.ReconcileInput) bool {
			return len(input.TransactionIDs) == 1 && input.TransactionIDs[0] == txID
		})).Return(acc, balancedSummary(), nil)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile/preview", handler.Preview)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile/preview", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{txID.String()},
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		require.Contains(t, data, "account")
		require.Contains(t, data, "summary")

		summaryBytes, err := json.Marshal(data["summary"])
		require.NoError(t, err)
		var summary ReconcileSummaryResponse
		require.NoError(t, json.Unmarshal(summaryBytes, &summary))
		assert.Equal(t, "$100.00", summary.CreditSum)
		assert.Equal(t, "$40.00", summary.DebitSum)
		assert.Equal(t, "$0.00", summary.OutOfBalance)
		assert.True(t, summary.Balanced)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidStatementDate", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile/preview", handler.Preview)

		rr := postJSON(router, "/accounts/checking/reconcile/preview", ReconcileRequest{
			StatementDate: "2025-06-30",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Preview", mock.Anything, "missing", mock.AnythingOfType("service.ReconcileInput")).
			Return(nil, reconcile.Summary{}, account.ErrAccountNotFound{Ref: "missing"})

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile/preview", handler.Preview)

		rr := postJSON(router, "/accounts/missing/reconcile/preview", ReconcileRequest{
			StatementDate: "06/30/2025",
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestReconcileHandler_Commit(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(balancedSummary(), nil)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{uuid.New().String()},
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var summary ReconcileSummaryResponse
		decodeData(t, rr.Body.Bytes(), &summary)
		assert.True(t, summary.Balanced)
		mockService.AssertExpectations(t)
	})

	t.Run("OutOfBalance", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		summary := reconcile.Summary{
			CreditSum:    decimal.NewFromInt(100),
			DebitSum:     decimal.NewFromInt(40),
			NetChange:    decimal.NewFromInt(60),
			OutOfBalance: decimal.NewFromInt(-25),
		}
		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(summary, reconcile.ErrOutOfBalance)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
		})

		// The failed commit is a 400, never a 500, and carries the figures.
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "OUT_OF_BALANCE", envelope.Error.Code)

		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		var body ReconcileSummaryResponse
		require.NoError(t, json.Unmarshal(dataBytes, &body))
		assert.Equal(t, "($25.00)", body.OutOfBalance)
		assert.False(t, body.Balanced)
		mockService.AssertExpectations(t)
	})

	t.Run("StatementBalanceRequired", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, reconcile.ErrStatementBalanceRequired)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate: "06/30/2025",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("StatementBeforeLastReconciled", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, reconcile.ErrStatementBeforeLastReconciled)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "01/31/2020",
			StatementBalance: &balance,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "STATEMENT_BEFORE_LAST_RECONCILED", envelope.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("AlreadyReconciledLine", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, reconcile.ErrReconciledTransaction)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{uuid.New().String()},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("LineDatedAfterStatement", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, reconcile.ErrTransactionAfterStatement)

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{uuid.New().String()},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var envelope Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "TRANSACTION_AFTER_STATEMENT", envelope.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateLineSelection", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		txID := uuid.New()
		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, journal.ErrDuplicateTransaction{TransactionID: txID})

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{txID.String(), txID.String()},
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("PurgedTransaction", func(t *testing.T) {
		mockService := new(MockReconcileService)
		handler := NewReconcileHandler(logger, mockService)

		txID := uuid.New()
		mockService.On("Commit", mock.Anything, "checking", mock.AnythingOfType("service.ReconcileInput")).
			Return(reconcile.Summary{}, journal.ErrTransactionNotFound{TransactionID: txID})

		router := setupTestRouter()
		router.POST("/accounts/:slug/reconcile", handler.Commit)

		balance := "600.00"
		rr := postJSON(router, "/accounts/checking/reconcile", ReconcileRequest{
			StatementDate:    "06/30/2025",
			StatementBalance: &balance,
			TransactionIDs:   []string{txID.String()},
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}
