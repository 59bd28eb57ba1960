// Package mongo provides MongoDB implementations of the entry store mirror
// and the scan event archive.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corp-qr-hub/internal/domain/entry"
)

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// KVRepository implements entry.Repository with one document per key
type KVRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

func NewKVRepository(logger *slog.Logger, collection *mongo.Collection) *KVRepository {
	return &KVRepository{
		collection: collection,
		logger:     logger,
	}
}

func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var doc kvDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entry.ErrNoData
		}
		r.logger.Error("Failed to load value", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

// Save replaces the document for key, creating it on first write.
func (r *KVRepository) Save(ctx context.Context, key string, data []byte) error {
	doc := kvDocument{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		r.logger.Error("Failed to save value", "key", key, "error", err)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
