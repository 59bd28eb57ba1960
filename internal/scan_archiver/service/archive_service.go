package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corp-qr-hub/internal/domain/scan"
)

// ErrInvalidEvent wraps validation failures. Such events can never be
// archived and should not be retried.
var ErrInvalidEvent = errors.New("invalid scan event")

type archivingService struct {
	repo   scan.ArchiveRepository
	logger *slog.Logger
}

func NewArchiveService(logger *slog.Logger, repo scan.ArchiveRepository) ArchiveService {
	return &archivingService{repo: repo, logger: logger}
}

// Archive saves event. Redelivered events are already archived and count as
// success.
func (s *archivingService) Archive(ctx context.Context, event *scan.Recorded) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	logger := s.logger.With("event_id", event.EventID, "entry_id", event.EntryID)
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	if err := s.repo.Save(ctx, event); err != nil {
		if errors.Is(err, scan.ErrDuplicateEvent{}) {
			logger.Info("Scan event already archived, skipping")
			return nil
		}
		return fmt.Errorf("failed to archive scan event %s: %w", event.EventID, err)
	}

	logger.Debug("Archived scan event", "device", event.Device)
	return nil
}
