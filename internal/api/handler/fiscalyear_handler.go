package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/api/middleware"
	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
)

// FiscalYearHandler handles HTTP requests for fiscal-year administration
type FiscalYearHandler struct {
	fiscalYearService service.FiscalYearService
	logger            *slog.Logger
}

// NewFiscalYearHandler creates a new fiscal year handler
func NewFiscalYearHandler(logger *slog.Logger, fiscalYearService service.FiscalYearService) *FiscalYearHandler {
	return &FiscalYearHandler{
		fiscalYearService: fiscalYearService,
		logger:            logger,
	}
}

// RequestClose validates a close request and hands it to the year-close
// worker. The response is a 202: the books are closed asynchronously.
func (h *FiscalYearHandler) RequestClose(c *gin.Context) {
	var req CloseFiscalYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	excluded := make([]uuid.UUID, 0, len(req.ExcludedAccountIDs))
	for _, raw := range req.ExcludedAccountIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid excluded account ID")
			return
		}
		excluded = append(excluded, id)
	}

	request, err := h.fiscalYearService.RequestClose(c.Request.Context(), req.Year, req.EndMonth, req.Period, excluded, middleware.GetCorrelationID(c))
	if err != nil {
		switch {
		case errors.Is(err, fiscalyear.ErrInvalidPeriod), errors.Is(err, fiscalyear.ErrInvalidMonth):
			RespondBadRequest(c, err.Error())
		case errors.Is(err, fiscalyear.ErrNotAfterLatest):
			RespondUnprocessable(c, "YEAR_NOT_AFTER_LATEST", err.Error())
		default:
			h.logger.Error("Failed to request fiscal year close", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapCloseRequestToResponse(request))
}

// Current reports the active accounting period
func (h *FiscalYearHandler) Current(c *gin.Context) {
	start, latest, err := h.fiscalYearService.Current(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load fiscal years", "error", err)
		RespondInternalError(c)
		return
	}

	response := CurrentFiscalYearResponse{Latest: mapFiscalYearToResponse(latest)}
	if !start.IsZero() {
		response.Start = start.Format(monthLayout)
	}
	RespondOK(c, response)
}
