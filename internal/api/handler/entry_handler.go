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
)

// EntryHandler handles HTTP requests for journal entries
type EntryHandler struct {
	entryService service.EntryService
	logger       *slog.Logger
}

// NewEntryHandler creates a new journal entry handler
func NewEntryHandler(logger *slog.Logger, entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// respondValidationErrors sends the per-line rule violations formset-style:
// a 400 whose data carries one error per offending line.
func respondValidationErrors(c *gin.Context, errs []journal.ValidationError) {
	response := NewErrorResponse("VALIDATION_FAILED", "The entry could not be posted")
	response.Data = mapValidationErrors(errs)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(http.StatusBadRequest, response)
}

// Post handles submission of a journal entry with its lines
func (h *EntryHandler) Post(c *gin.Context) {
	var req PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input, err := h.buildInput(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entry, lines, errs, err := h.entryService.PostEntry(c.Request.Context(), input)
	if err != nil {
		var notFound account.ErrAccountNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to post entry", "error", err)
		RespondInternalError(c)
		return
	}
	if len(errs) > 0 {
		respondValidationErrors(c, errs)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry, lines))
}

// Get retrieves an entry with its lines
func (h *EntryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, lines, err := h.entryService.GetEntry(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrEntryNotFound{}) {
			RespondNotFound(c, "Entry not found")
			return
		}
		h.logger.Error("Failed to get entry", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntryToResponse(entry, lines))
}

// Transfer posts a two-line general entry between two accounts
func (h *EntryHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid source account ID")
		return
	}
	destinationID, err := uuid.Parse(req.DestinationAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid destination account ID")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected "+dateLayout)
		return
	}

	entry, errs, err := h.entryService.Transfer(c.Request.Context(), sourceID, destinationID, amount, date, req.Memo, req.Detail)
	if err != nil {
		h.logger.Error("Failed to transfer", "error", err)
		RespondInternalError(c)
		return
	}
	if len(errs) > 0 {
		respondValidationErrors(c, errs)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry, nil))
}

// Void voids a bank spending entry
func (h *EntryHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.entryService.Void(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, journal.ErrEntryNotFound{}):
			RespondNotFound(c, "Entry not found")
		case errors.Is(err, journal.ErrNotBankSpending):
			RespondUnprocessable(c, "NOT_BANK_SPENDING", err.Error())
		case errors.Is(err, journal.ErrVoidEntry):
			RespondConflict(c, "The entry is already void")
		default:
			h.logger.Error("Failed to void entry", "id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapEntryToResponse(entry, nil))
}

// buildInput converts the wire representation into a posting input. Amount
// and date strings are parsed here; the double-entry rules stay in the
// domain validator.
func (h *EntryHandler) buildInput(req PostEntryRequest) (service.PostEntryInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return service.PostEntryInput{}, errors.New("invalid date, expected " + dateLayout)
	}

	input := service.PostEntryInput{
		Kind:        journal.Kind(req.Kind),
		Date:        date,
		Memo:        req.Memo,
		Comments:    req.Comments,
		CheckNumber: req.CheckNumber,
		ACHPayment:  req.ACHPayment,
		Payee:       req.Payee,
		Payor:       req.Payor,
	}
	if req.EventID != "" {
		id, err := uuid.Parse(req.EventID)
		if err != nil {
			return service.PostEntryInput{}, errors.New("invalid event ID")
		}
		input.EventID = &id
	}
	if req.MainAccountID != "" {
		id, err := uuid.Parse(req.MainAccountID)
		if err != nil {
			return service.PostEntryInput{}, errors.New("invalid main account ID")
		}
		input.MainAccountID = &id
	}

	for _, line := range req.Lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			return service.PostEntryInput{}, errors.New("invalid account ID on line")
		}
		debit, err := parseAmount(line.Debit)
		if err != nil {
			return service.PostEntryInput{}, errors.New("invalid debit amount on line")
		}
		credit, err := parseAmount(line.Credit)
		if err != nil {
			return service.PostEntryInput{}, errors.New("invalid credit amount on line")
		}
		lineInput := journal.LineInput{
			AccountID: accountID,
			Detail:    line.Detail,
			Debit:     debit,
			Credit:    credit,
		}
		if line.EventID != "" {
			id, err := uuid.Parse(line.EventID)
			if err != nil {
				return service.PostEntryInput{}, errors.New("invalid event ID on line")
			}
			lineInput.EventID = &id
		}
		input.Lines = append(input.Lines, lineInput)
	}
	return input, nil
}

// parseAmount reads a decimal string; empty means zero (the unused side of a
// debit/credit pair).
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
