package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corp-qr-hub/internal/domain/scan"
	"github.com/corp-qr-hub/internal/platform/messaging/producers"
	"github.com/corp-qr-hub/internal/scan_archiver/service"
)

const (
	reasonUnmarshal = "unmarshal_error"
	reasonInvalid   = "invalid_event"
)

// ScanEventHandler archives ScanRecorded messages. Messages that can never
// be archived go to the DLQ. Transient failures are returned and the
// consumer retries the message until it is archived.
type ScanEventHandler struct {
	archive service.ArchiveService
	dlq     producers.DeadLetterPublisher
	logger  *slog.Logger
}

func NewScanEventHandler(logger *slog.Logger, archive service.ArchiveService, dlq producers.DeadLetterPublisher) *ScanEventHandler {
	return &ScanEventHandler{archive: archive, dlq: dlq, logger: logger}
}

func (h *ScanEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event scan.Recorded
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal scan event", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, reasonUnmarshal, err)
	}

	logger := h.logger.With("event_id", event.EventID, "entry_id", event.EntryID)
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	if err := h.archive.Archive(ctx, &event); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			logger.Error("Rejected scan event", "error", err)
			return h.deadLetter(ctx, key, value, reasonInvalid, err)
		}
		logger.Error("Failed to archive scan event", "error", err)
		return fmt.Errorf("archiving scan event %s failed: %w", event.EventID, err)
	}

	logger.Info("Archived scan event", "device", event.Device)
	return nil
}

// deadLetter parks the message. Without a DLQ the message is dropped after
// logging, since no retry can make it archivable. A failed publish is
// returned so the consumer retries it.
func (h *ScanEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.dlq == nil {
		h.logger.Warn("Dropping unprocessable scan event, no DLQ configured", "reason", reason, "error", cause, "message_key", string(key))
		return nil
	}
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, fmt.Sprintf("%s: %s", reason, cause)); err != nil {
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "original_error", cause, "message_key", string(key))
		return fmt.Errorf("%s: %w", reason, cause)
	}
	return nil
}
