package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/domain/scan"
	"github.com/corp-qr-hub/internal/platform/messaging/producers"
)

const defaultPublishTimeout = 5 * time.Second

// PoolScanNotifier publishes ScanRecorded events from a bounded worker pool.
// When every worker is busy the event is dropped and logged; the scan itself
// is already stored.
type PoolScanNotifier struct {
	pool      *ants.Pool
	publisher producers.MessagePublisher
	timeout   time.Duration
	logger    *slog.Logger
}

func NewPoolScanNotifier(logger *slog.Logger, publisher producers.MessagePublisher, size int) (*PoolScanNotifier, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be greater than 0, got %d", size)
	}

	log := logger.With("component", "scan_notifier")
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			log.Error("Panic while publishing scan event", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &PoolScanNotifier{
		pool:      pool,
		publisher: publisher,
		timeout:   defaultPublishTimeout,
		logger:    log,
	}, nil
}

func (n *PoolScanNotifier) Notify(e entry.Entry, ev entry.ScanEvent, correlationID string) {
	event := scan.NewRecorded(e, ev, correlationID)

	err := n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.publisher.Publish(ctx, event.EntryID, event); err != nil {
			n.logger.Error("Failed to publish scan event",
				"event_id", event.EventID,
				"entry_id", event.EntryID,
				"error", err,
			)
			return
		}
		n.logger.Debug("Scan event published", "event_id", event.EventID, "entry_id", event.EntryID)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			n.logger.Warn("Scan event dropped, publisher pool is saturated", "entry_id", event.EntryID)
			return
		}
		n.logger.Error("Failed to submit scan event", "entry_id", event.EntryID, "error", err)
	}
}

// Close waits for in-flight publishes, then closes the publisher.
func (n *PoolScanNotifier) Close() error {
	var errs []error
	if err := n.pool.ReleaseTimeout(n.timeout); err != nil {
		errs = append(errs, fmt.Errorf("release worker pool: %w", err))
	}
	if err := n.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	return errors.Join(errs...)
}

// NopScanNotifier is used when the scan event stream is disabled.
type NopScanNotifier struct{}

func (NopScanNotifier) Notify(entry.Entry, entry.ScanEvent, string) {}
func (NopScanNotifier) Close() error                                 { return nil }
