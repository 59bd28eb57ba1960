package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/platform/persistence"
)

func newTestRepo(t *testing.T) (*KVRepository, *persistence.SQLiteDB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	db, err := persistence.NewSQLiteDB(logger, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewKVRepository(logger, db.DB()), db
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.Load(ctx, "corp_qr_hub_data")
		assert.ErrorIs(t, err, entry.ErrNoData)
	})

	t.Run("SaveThenOverwrite", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		require.NoError(t, repo.Save(ctx, "k", []byte(`[{"id":"1"}]`)))
		require.NoError(t, repo.Save(ctx, "k", []byte(`[]`)))

		data, err := repo.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(data))
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		require.NoError(t, repo.Save(ctx, "a", []byte("1")))
		require.NoError(t, repo.Save(ctx, "b", []byte("2")))

		a, err := repo.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "1", string(a))
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		repo, db := newTestRepo(t)
		require.NoError(t, db.Close())

		err := repo.Save(ctx, "k", []byte("[]"))
		assert.ErrorContains(t, err, "failed to save k")
		_, err = repo.Load(ctx, "k")
		assert.ErrorContains(t, err, "failed to load k")
	})
}
