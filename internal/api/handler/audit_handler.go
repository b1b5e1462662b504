package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/api/service"
)

// AuditHandler handles HTTP requests for the audit trail
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit trail handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// BySubject returns the audit records for one subject, newest first
func (h *AuditHandler) BySubject(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid subject ID")
		return
	}

	limit, offset, ok := h.page(c)
	if !ok {
		return
	}

	records, err := h.auditService.BySubject(c.Request.Context(), subjectID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to query audit records", "subject_id", subjectID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]AuditRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, mapAuditRecordToResponse(record))
	}
	RespondOK(c, response)
}

// ByTimeRange returns the audit records created within a date window, newest
// first. The start date is required; a missing end leaves the window open
// through the present.
func (h *AuditHandler) ByTimeRange(c *gin.Context) {
	raw := c.Query("start")
	if raw == "" {
		RespondBadRequest(c, "A start date is required")
		return
	}
	start, err := time.Parse(dateLayout, raw)
	if err != nil {
		RespondBadRequest(c, "Invalid start date, expected "+dateLayout)
		return
	}

	end := time.Now().UTC()
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid end date, expected "+dateLayout)
			return
		}
		// The window runs through the end of the named day.
		end = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	limit, offset, ok := h.page(c)
	if !ok {
		return
	}

	records, err := h.auditService.ByTimeRange(c.Request.Context(), start, end, limit, offset)
	if err != nil {
		h.logger.Error("Failed to query audit records", "start", start, "end", end, "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]AuditRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, mapAuditRecordToResponse(record))
	}
	RespondOK(c, response)
}

// page parses optional limit/offset query parameters. Missing values come
// back as zero and take the service defaults.
func (h *AuditHandler) page(c *gin.Context) (int, int, bool) {
	var limit, offset int
	var err error
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondBadRequest(c, "Invalid limit")
			return 0, 0, false
		}
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			RespondBadRequest(c, "Invalid offset")
			return 0, 0, false
		}
	}
	return limit, offset, true
}
