package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/money"
)

// AccountHandler handles HTTP requests for the chart of accounts
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles creation of a chart header or account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			RespondBadRequest(c, "Invalid parent ID")
			return
		}
		parentID = &id
	}

	if req.Header {
		header, err := h.accountService.CreateHeader(c.Request.Context(), req.Name, req.Slug, account.Type(req.Type), parentID)
		if err != nil {
			h.respondCreateError(c, err)
			return
		}
		RespondCreated(c, mapHeaderToResponse(header))
		return
	}

	if parentID == nil {
		RespondBadRequest(c, "An account requires a parent header")
		return
	}
	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, req.Slug, *parentID, req.Bank)
	if err != nil {
		h.respondCreateError(c, err)
		return
	}
	RespondCreated(c, mapAccountToResponse(acc, "", acc.ValueBalance()))
}

func (h *AccountHandler) respondCreateError(c *gin.Context, err error) {
	var duplicateSlug account.ErrDuplicateSlug
	var notFound account.ErrAccountNotFound
	switch {
	case errors.As(err, &duplicateSlug):
		RespondConflict(c, "An account or header with this slug already exists")
	case errors.As(err, &notFound):
		RespondNotFound(c, "Parent header not found")
	case errors.Is(err, account.ErrEmptyName),
		errors.Is(err, account.ErrInvalidSlug),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, account.ErrMissingParent):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Failed to create chart entry", "error", err)
		RespondInternalError(c)
	}
}

// Chart returns the full chart of accounts as a tree with derived numbers
// and balances. With ?bank=true it returns just the flat list of active bank
// accounts instead.
func (h *AccountHandler) Chart(c *gin.Context) {
	if c.Query("bank") == "true" {
		h.bankAccounts(c)
		return
	}

	nodes, err := h.accountService.Chart(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build chart of accounts", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]ChartNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		response = append(response, mapChartNodeToResponse(node))
	}
	RespondOK(c, response)
}

func (h *AccountHandler) bankAccounts(c *gin.Context) {
	banks, err := h.accountService.BankAccounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list bank accounts", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]AccountResponse, 0, len(banks))
	for _, bank := range banks {
		response = append(response, mapAccountToResponse(bank.Account, bank.Number, bank.Value))
	}
	RespondOK(c, response)
}

// Ledger returns an account with its register over an optional date window
func (h *AccountHandler) Ledger(c *gin.Context) {
	slug := c.Param("slug")
	start, stop, ok := h.dateWindow(c)
	if !ok {
		return
	}

	ledger, err := h.accountService.Ledger(c.Request.Context(), slug, start, stop)
	if err != nil {
		var notFound account.ErrAccountNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to build ledger", "slug", slug, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, h.mapLedgerToResponse(ledger))
}

// Transactions returns the date-ranged ledger lines without the account
// envelope, the feed behind register listings.
func (h *AccountHandler) Transactions(c *gin.Context) {
	slug := c.Param("slug")
	start, stop, ok := h.dateWindow(c)
	if !ok {
		return
	}

	ledger, err := h.accountService.Ledger(c.Request.Context(), slug, start, stop)
	if err != nil {
		var notFound account.ErrAccountNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to list transactions", "slug", slug, "error", err)
		RespondInternalError(c)
		return
	}

	lines := make([]TransactionResponse, 0, len(ledger.Lines))
	for _, line := range ledger.Lines {
		lines = append(lines, h.mapLedgerLine(line))
	}
	RespondOK(c, lines)
}

// dateWindow parses optional start/stop query parameters. A missing side
// leaves the window open.
func (h *AccountHandler) dateWindow(c *gin.Context) (time.Time, time.Time, bool) {
	var start, stop time.Time
	var err error
	if raw := c.Query("start"); raw != "" {
		start, err = time.Parse(dateLayout, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid start date, expected "+dateLayout)
			return start, stop, false
		}
	}
	if raw := c.Query("stop"); raw != "" {
		stop, err = time.Parse(dateLayout, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid stop date, expected "+dateLayout)
			return start, stop, false
		}
	}
	return start, stop, true
}

func (h *AccountHandler) mapLedgerLine(line service.LedgerLine) TransactionResponse {
	resp := mapTransactionToResponse(line.Transaction)
	resp.RunningBalance = money.Format(line.RunningBalance)
	return resp
}

func (h *AccountHandler) mapLedgerToResponse(ledger *service.Ledger) LedgerResponse {
	resp := LedgerResponse{
		Account:        mapAccountToResponse(ledger.Account, ledger.Number, ledger.ValueBalance),
		OpeningBalance: money.Format(ledger.OpeningBalance),
		Lines:          make([]TransactionResponse, 0, len(ledger.Lines)),
		Totals:         mapTotalsToResponse(ledger.Totals),
	}
	for _, line := range ledger.Lines {
		resp.Lines = append(resp.Lines, h.mapLedgerLine(line))
	}
	return resp
}
