package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/history"
)

// HistoryHandler handles HTTP requests for archived monthly figures
type HistoryHandler struct {
	historyService service.HistoryService
	logger         *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(logger *slog.Logger, historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// Month returns the archived figures for one month
func (h *HistoryHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		RespondBadRequest(c, "Invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		RespondBadRequest(c, "Invalid month")
		return
	}

	view, err := h.historyService.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		var noHistory history.ErrNoHistory
		if errors.As(err, &noHistory) {
			RespondNotFound(c, "No history exists for this month")
			return
		}
		h.logger.Error("Failed to load history", "year", year, "month", month, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapMonthToResponse(view))
}
