package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corp-qr-hub/internal/domain/scan"
)

// ScanArchiveRepository implements scan.ArchiveRepository. Events are keyed
// by event id, so redelivered messages are rejected by the primary key.
type ScanArchiveRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

func NewScanArchiveRepository(logger *slog.Logger, collection *mongo.Collection) *ScanArchiveRepository {
	return &ScanArchiveRepository{
		collection: collection,
		logger:     logger,
	}
}

// EnsureIndexes creates the secondary index used by per-entry lookups.
func (r *ScanArchiveRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entry_id", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("entry_id_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("failed to create scan archive index: %w", err)
	}
	return nil
}

func (r *ScanArchiveRepository) Save(ctx context.Context, ev *scan.Recorded) error {
	if _, err := r.collection.InsertOne(ctx, ev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return scan.ErrDuplicateEvent{EventID: ev.EventID}
		}
		r.logger.Error("Failed to archive scan event",
			"event_id", ev.EventID,
			"entry_id", ev.EntryID,
			"error", err)
		return fmt.Errorf("failed to archive scan event: %w", err)
	}
	return nil
}

var _ scan.ArchiveRepository = (*ScanArchiveRepository)(nil)
