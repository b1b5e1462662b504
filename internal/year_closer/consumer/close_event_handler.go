// Package consumer wires close requests from Kafka into the close service.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coop-bookkeeping/internal/domain/shared"
	"github.com/coop-bookkeeping/internal/platform/messaging/producers"
	"github.com/coop-bookkeeping/internal/year_closer/service"
)

// CloseEventHandler decodes close requests and routes failures: messages that
// cannot be decoded and terminal close failures go to the dead letter queue
// and are committed; transient failures are returned so the offset stays put
// and Kafka redelivers.
type CloseEventHandler struct {
	logger       *slog.Logger
	closeService service.CloseService
	dlqProducer  producers.DeadLetterPublisher
}

func NewCloseEventHandler(logger *slog.Logger, closeService service.CloseService, dlqProducer producers.DeadLetterPublisher) *CloseEventHandler {
	return &CloseEventHandler{
		logger:       logger,
		closeService: closeService,
		dlqProducer:  dlqProducer,
	}
}

// HandleMessage satisfies consumers.MessageHandler.
func (h *CloseEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.CloseRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal close request, sending to DLQ",
			"key", string(key),
			"error", err,
		)
		h.sendToDLQ(ctx, string(key), value, "unmarshal_error: "+err.Error())
		// Committed either way: an unparseable message never becomes valid.
		return nil
	}

	logger := h.logger.With(
		"request_id", request.RequestID.String(),
		"correlation_id", request.CorrelationID,
		"year", request.Year,
	)
	logger.Info("Processing fiscal year close request")

	err := h.closeService.Close(ctx, &request)
	if err == nil {
		return nil
	}

	var closeErr *service.CloseError
	if errors.As(err, &closeErr) {
		logger.Error("Close request failed terminally, sending to DLQ",
			"reason", string(closeErr.Reason),
			"error", closeErr.Err,
		)
		h.sendToDLQ(ctx, string(key), value, string(closeErr.Reason))
		return nil
	}

	// Transient: leave the offset uncommitted so the request is redelivered.
	return fmt.Errorf("failed to process close request for year %d: %w", request.Year, err)
}

func (h *CloseEventHandler) sendToDLQ(ctx context.Context, key string, value []byte, reason string) {
	if h.dlqProducer == nil {
		h.logger.Warn("DLQ is not configured, dropping failed close request", "key", key, "reason", reason)
		return
	}
	if err := h.dlqProducer.PublishToDLQ(ctx, key, value, reason); err != nil {
		h.logger.Error("Failed to publish close request to DLQ",
			"key", key,
			"reason", reason,
			"error", err,
		)
	}
}
