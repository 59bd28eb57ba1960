package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/corp-qr-hub/internal/domain/scan"
)

// WorkerPoolArchiveService bounds concurrent archive writes with an ants pool.
// Archive blocks until the pooled task finished so the consumer commits only
// archived messages.
type WorkerPoolArchiveService struct {
	base   ArchiveService
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPoolArchiveService(base ArchiveService, size int, logger *slog.Logger) (*WorkerPoolArchiveService, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be positive, got %d", size)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &WorkerPoolArchiveService{base: base, pool: pool, logger: logger}, nil
}

func (s *WorkerPoolArchiveService) Archive(ctx context.Context, event *scan.Recorded) error {
	result := make(chan error, 1)
	eventCopy := *event

	if err := s.pool.Submit(func() {
		result <- s.base.Archive(ctx, &eventCopy)
	}); err != nil {
		s.logger.Error("Failed to submit scan event to worker pool", "event_id", event.EventID, "error", err)
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WorkerPoolArchiveService) Shutdown() {
	s.logger.Info("Shutting down archive worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolArchiveService) Running() int  { return s.pool.Running() }
func (s *WorkerPoolArchiveService) Capacity() int { return s.pool.Cap() }
