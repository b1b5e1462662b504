package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/api/middleware"
	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/reconcile"
)

// ReconcileHandler handles HTTP requests for statement reconciliation
type ReconcileHandler struct {
	reconcileService service.ReconcileService
	logger           *slog.Logger
}

// NewReconcileHandler creates a new reconciliation handler
func NewReconcileHandler(logger *slog.Logger, reconcileService service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Candidates lists the account's unreconciled lines a statement could cover.
// The optional through query parameter caps the line dates; without it every
// unreconciled line is returned.
func (h *ReconcileHandler) Candidates(c *gin.Context) {
	slug := c.Param("slug")

	var through time.Time
	if raw := c.Query("through"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid through date, expected "+dateLayout)
			return
		}
		through = parsed
	}

	acc, lines, err := h.reconcileService.Candidates(c.Request.Context(), slug, through)
	if err != nil {
		h.respondError(c, slug, err)
		return
	}

	candidates := make([]TransactionResponse, 0, len(lines))
	for _, line := range lines {
		candidates = append(candidates, mapTransactionToResponse(line))
	}
	RespondOK(c, gin.H{
		"account": mapAccountToResponse(acc, "", acc.ValueBalance()),
		"lines":   candidates,
	})
}

// Preview computes the session arithmetic for a candidate selection
func (h *ReconcileHandler) Preview(c *gin.Context) {
	slug := c.Param("slug")
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	acc, summary, err := h.reconcileService.Preview(c.Request.Context(), slug, input)
	if err != nil {
		h.respondError(c, slug, err)
		return
	}

	RespondOK(c, gin.H{
		"account": mapAccountToResponse(acc, "", acc.ValueBalance()),
		"summary": mapSummaryToResponse(summary),
	})
}

// Commit validates and commits the reconciliation
func (h *ReconcileHandler) Commit(c *gin.Context) {
	slug := c.Param("slug")
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	summary, err := h.reconcileService.Commit(c.Request.Context(), slug, input)
	if err != nil {
		// Out-of-balance commits still return the arithmetic so the
		// figures can be shown next to the failure.
		if errors.Is(err, reconcile.ErrOutOfBalance) {
			response := NewErrorResponse("OUT_OF_BALANCE", err.Error())
			response.Data = mapSummaryToResponse(summary)
			response.CorrelationID = middleware.GetCorrelationID(c)
			c.JSON(http.StatusBadRequest, response)
			return
		}
		h.respondError(c, slug, err)
		return
	}

	RespondOK(c, mapSummaryToResponse(summary))
}

func (h *ReconcileHandler) respondError(c *gin.Context, slug string, err error) {
	var notFound account.ErrAccountNotFound
	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Account not found")
	case errors.Is(err, journal.ErrTransactionNotFound{}):
		RespondNotFound(c, "A selected transaction does not exist for this account")
	case errors.Is(err, journal.ErrDuplicateTransaction{}):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, reconcile.ErrStatementBalanceRequired):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, reconcile.ErrStatementBeforeLastReconciled):
		RespondUnprocessable(c, "STATEMENT_BEFORE_LAST_RECONCILED", err.Error())
	case errors.Is(err, reconcile.ErrReconciledTransaction):
		RespondUnprocessable(c, "TRANSACTION_ALREADY_RECONCILED", err.Error())
	case errors.Is(err, reconcile.ErrTransactionAfterStatement):
		RespondUnprocessable(c, "TRANSACTION_AFTER_STATEMENT", err.Error())
	default:
		h.logger.Error("Reconciliation failed", "slug", slug, "error", err)
		RespondInternalError(c)
	}
}

func (h *ReconcileHandler) bindInput(c *gin.Context) (service.ReconcileInput, bool) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return service.ReconcileInput{}, false
	}

	statementDate, err := time.Parse(dateLayout, req.StatementDate)
	if err != nil {
		RespondBadRequest(c, "Invalid statement date, expected "+dateLayout)
		return service.ReconcileInput{}, false
	}

	input := service.ReconcileInput{StatementDate: statementDate}
	if req.StatementBalance != nil {
		balance, err := decimal.NewFromString(*req.StatementBalance)
		if err != nil {
			RespondBadRequest(c, "Invalid statement balance")
			return service.ReconcileInput{}, false
		}
		input.StatementBalance = &balance
	}
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid transaction ID")
			return service.ReconcileInput{}, false
		}
		input.TransactionIDs = append(input.TransactionIDs, id)
	}
	return input, true
}
