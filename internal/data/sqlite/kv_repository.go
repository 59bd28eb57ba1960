// Package sqlite stores the entry list in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// KVRepository implements entry.Repository on the kv_store table
type KVRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewKVRepository(logger *slog.Logger, db *sql.DB) *KVRepository {
	return &KVRepository{db: db, logger: logger}
}

func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entry.ErrNoData
		}
		r.logger.Error("Failed to load value", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return []byte(value), nil
}

func (r *KVRepository) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(data), time.Now().UnixMilli()); err != nil {
		r.logger.Error("Failed to save value", "key", key, "error", err)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
