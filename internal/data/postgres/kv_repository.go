// Package postgres stores the entry list in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/platform/persistence"
)

// KVRepository implements entry.Repository on the kv_store table
type KVRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	now     func() time.Time
}

// NewKVRepository expects db.Pool() to satisfy persistence.Querier.
func NewKVRepository(logger *slog.Logger, db *persistence.PostgresDB) *KVRepository {
	return &KVRepository{
		querier: db.Pool(),
		logger:  logger,
		now:     time.Now,
	}
}

func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_store
		WHERE key = $1
	`

	var value string
	if err := r.querier.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.querier.Exec(ctx, query, key, string(data), r.now().UTC()); err != nil {
		r.logger.Error("Failed to save value", "key", key, "error", err)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
