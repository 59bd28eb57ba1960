package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/corp-qr-hub/internal/data/memory"
	"github.com/corp-qr-hub/internal/domain/entry"
)

const testKey = "corp_qr_hub_data"

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func linkDraft(name, url string) entry.Draft {
	lit, _ := entry.NewLiteral(entry.KindLink, url)
	return entry.Draft{Name: name, Payload: lit, Style: entry.DefaultStyle()}
}

// persisted decodes what the repository currently holds.
func persisted(t *testing.T, repo *memory.Repository) []entry.Entry {
	t.Helper()
	data, err := repo.Load(context.Background(), testKey)
	require.NoError(t, err)
	entries, err := entry.DecodeList(data)
	require.NoError(t, err)
	return entries
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstEntryDefaults", func(t *testing.T) {
		repo := memory.NewRepository()
		s := NewStore(testLogger(), repo, testKey)
		require.NoError(t, s.Load(ctx))

		before := time.Now()
		e, err := s.Add(ctx, linkDraft("Booth A", "https://example.com"))
		require.NoError(t, err)

		assert.Equal(t, 1, s.Len())
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, entry.StatusActive, e.Status)
		assert.Empty(t, e.ScanLog)
		assert.Equal(t, entry.KindLink, e.Kind())
		assert.WithinDuration(t, before, e.CreatedAt, time.Second)
		assert.Equal(t, []entry.Entry{e}, persisted(t, repo))
	})

	t.Run("PrependsMostRecentFirst", func(t *testing.T) {
		s := NewStore(testLogger(), memory.NewRepository(), testKey)
		first, err := s.Add(ctx, linkDraft("first", "https://a.test"))
		require.NoError(t, err)
		second, err := s.Add(ctx, linkDraft("second", "https://b.test"))
		require.NoError(t, err)

		list := s.List()
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("IdsAreUnique", func(t *testing.T) {
		s := NewStore(testLogger(), memory.NewRepository(), testKey)
		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			e, err := s.Add(ctx, linkDraft(fmt.Sprintf("e%d", i), "https://a.test"))
			require.NoError(t, err)
			assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
			seen[e.ID] = true
		}
	})

	t.Run("ValidationErrorLeavesListUntouched", func(t *testing.T) {
		repo := new(MockRepository)
		s := NewStore(testLogger(), repo, testKey)

		_, err := s.Add(ctx, linkDraft("  ", "https://a.test"))
		var verr entry.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 0, s.Len())
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WriteFailureKeepsInMemoryChange", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Save", ctx, testKey, mock.Anything).Return(errors.New("quota exceeded")).Once()
		s := NewStore(testLogger(), repo, testKey)

		e, err := s.Add(ctx, linkDraft("Booth A", "https://example.com"))
		var werr entry.StorageWriteError
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, testKey, werr.Key)
		assert.NotEmpty(t, e.ID)

		got, err := s.Get(e.ID)
		require.NoError(t, err)
		assert.Equal(t, "Booth A", got.Name)
		repo.AssertExpectations(t)
	})
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKeyStartsEmpty", func(t *testing.T) {
		s := NewStore(testLogger(), memory.NewRepository(), testKey)
		assert.NoError(t, s.Load(ctx))
		assert.Empty(t, s.List())
	})

	t.Run("MalformedDataStartsEmpty", func(t *testing.T) {
		repo := memory.NewRepository()
		require.NoError(t, repo.Save(ctx, testKey, []byte("{not json")))
		s := NewStore(testLogger(), repo, testKey)

		err := s.Load(ctx)
		var rerr entry.StorageReadError
		require.True(t, errors.As(err, &rerr))
		assert.NotNil(t, s.List())
		assert.Empty(t, s.List())
	})

	t.Run("BackendFailureStartsEmpty", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Load", ctx, testKey).Return(nil, errors.New("connection refused")).Once()
		s := NewStore(testLogger(), repo, testKey)

		err := s.Load(ctx)
		assert.ErrorAs(t, err, &entry.StorageReadError{})
		assert.Empty(t, s.List())
	})

	t.Run("DropsBlankAndRepeatedIDs", func(t *testing.T) {
		repo := memory.NewRepository()
		first := entry.Entry{ID: "e-1", Name: "first", Payload: linkDraft("first", "https://a.test").Payload, Style: entry.DefaultStyle(), Status: entry.StatusActive, ScanLog: []entry.ScanEvent{}}
		repeat := first
		repeat.Name = "repeat"
		blank := first
		blank.ID = ""
		other := first
		other.ID = "e-2"
		data, err := entry.EncodeList([]entry.Entry{first, blank, repeat, other})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, testKey, data))

		s := NewStore(testLogger(), repo, testKey)
		require.NoError(t, s.Load(ctx))

		list := s.List()
		require.Len(t, list, 2)
		assert.Equal(t, "e-1", list[0].ID)
		assert.Equal(t, "first", list[0].Name)
		assert.Equal(t, "e-2", list[1].ID)
	})

	t.Run("RestoresPersistedList", func(t *testing.T) {
		repo := memory.NewRepository()
		s := NewStore(testLogger(), repo, testKey)
		_, err := s.Add(ctx, linkDraft("a", "https://a.test"))
		require.NoError(t, err)
		_, err = s.Add(ctx, linkDraft("b", "https://b.test"))
		require.NoError(t, err)

		reloaded := NewStore(testLogger(), repo, testKey)
		require.NoError(t, reloaded.Load(ctx))
		assert.Equal(t, s.List(), reloaded.List())
	})
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesGivenFields", func(t *testing.T) {
		repo := memory.NewRepository()
		s := NewStore(testLogger(), repo, testKey)
		e, err := s.Add(ctx, linkDraft("Old", "https://a.test"))
		require.NoError(t, err)

		name := "New"
		inactive := entry.StatusInactive
		updated, err := s.Update(ctx, e.ID, entry.Patch{Name: &name, Status: &inactive})
		require.NoError(t, err)

		assert.Equal(t, "New", updated.Name)
		assert.Equal(t, entry.StatusInactive, updated.Status)
		assert.Equal(t, e.Payload, updated.Payload)
		assert.Equal(t, e.CreatedAt, updated.CreatedAt)
		assert.Equal(t, s.List(), persisted(t, repo))
	})

	t.Run("UnknownIDDoesNotPersist", func(t *testing.T) {
		repo := new(MockRepository)
		s := NewStore(testLogger(), repo, testKey)

		name := "x"
		_, err := s.Update(ctx, "missing", entry.Patch{Name: &name})
		assert.ErrorIs(t, err, entry.ErrNotFound{})
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidPatchRejected", func(t *testing.T) {
		s := NewStore(testLogger(), memory.NewRepository(), testKey)
		e, err := s.Add(ctx, linkDraft("Keep", "https://a.test"))
		require.NoError(t, err)

		blank := " "
		_, err = s.Update(ctx, e.ID, entry.Patch{Name: &blank})
		assert.ErrorAs(t, err, &entry.ValidationError{})

		got, _ := s.Get(e.ID)
		assert.Equal(t, "Keep", got.Name)
	})
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	s := NewStore(testLogger(), repo, testKey)
	keep, err := s.Add(ctx, linkDraft("keep", "https://a.test"))
	require.NoError(t, err)
	gone, err := s.Add(ctx, linkDraft("gone", "https://b.test"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, gone.ID))
	assert.NoError(t, s.Remove(ctx, gone.ID), "second remove is a no-op")

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Equal(t, list, persisted(t, repo))

	_, err = s.Get(gone.ID)
	assert.ErrorIs(t, err, entry.ErrNotFound{ID: gone.ID})
}

func TestStore_RecordScan(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendsClassifiedEvent", func(t *testing.T) {
		repo := memory.NewRepository()
		s := NewStore(testLogger(), repo, testKey)
		e, err := s.Add(ctx, linkDraft("scan me", "https://a.test"))
		require.NoError(t, err)

		updated, ev, err := s.RecordScan(ctx, e.ID, "Mozilla/5.0 (Linux; Android 14)")
		require.NoError(t, err)
		assert.Equal(t, entry.DeviceMobile, ev.Device)
		require.Len(t, updated.ScanLog, 1)
		assert.Equal(t, ev, updated.ScanLog[0])

		updated, ev, err = s.RecordScan(ctx, e.ID, "Mozilla/5.0 (Windows NT 10.0)")
		require.NoError(t, err)
		assert.Equal(t, entry.DeviceDesktop, ev.Device)
		assert.Len(t, updated.ScanLog, 2)
		assert.Equal(t, s.List(), persisted(t, repo))
	})

	t.Run("TimestampsNeverDecrease", func(t *testing.T) {
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := []time.Time{base, base.Add(time.Minute), base.Add(-time.Hour), base.Add(2 * time.Minute)}
		calls := 0
		now := func() time.Time {
			ts := clock[calls%len(clock)]
			calls++
			return ts
		}
		s := NewStore(testLogger(), memory.NewRepository(), testKey, WithClock(now))
		e, err := s.Add(ctx, linkDraft("clock", "https://a.test"))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			before, _ := s.Get(e.ID)
			updated, _, err := s.RecordScan(ctx, e.ID, "")
			require.NoError(t, err)
			require.Len(t, updated.ScanLog, len(before.ScanLog)+1)
			last := updated.ScanLog[len(updated.ScanLog)-1]
			for _, prev := range before.ScanLog {
				assert.False(t, last.Timestamp.Before(prev.Timestamp))
			}
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		s := NewStore(testLogger(), memory.NewRepository(), testKey)
		_, _, err := s.RecordScan(ctx, "missing", "")
		assert.ErrorIs(t, err, entry.ErrNotFound{})
	})
}

func TestStore_RecordActiveScan(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	s := NewStore(testLogger(), repo, testKey)
	e, err := s.Add(ctx, linkDraft("scan me", "https://a.test"))
	require.NoError(t, err)

	updated, _, err := s.RecordActiveScan(ctx, e.ID, "curl/8.0")
	require.NoError(t, err)
	assert.Len(t, updated.ScanLog, 1)

	_, err = s.ToggleStatus(ctx, e.ID)
	require.NoError(t, err)

	got, ev, err := s.RecordActiveScan(ctx, e.ID, "curl/8.0")
	assert.ErrorIs(t, err, entry.ErrInactive)
	assert.Equal(t, entry.ScanEvent{}, ev)
	assert.Equal(t, entry.StatusInactive, got.Status)
	assert.Len(t, got.ScanLog, 1)
	assert.Equal(t, s.List(), persisted(t, repo))

	_, _, err = s.RecordActiveScan(ctx, "missing", "")
	assert.ErrorIs(t, err, entry.ErrNotFound{})
}

func TestStore_ToggleStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	s := NewStore(testLogger(), repo, testKey)
	e, err := s.Add(ctx, linkDraft("toggle", "https://a.test"))
	require.NoError(t, err)

	t.Run("ConcurrentTogglesAllApply", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ToggleStatus(ctx, e.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(e.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.StatusActive, got.Status)
		assert.Equal(t, s.List(), persisted(t, repo))
	})

	t.Run("Flips", func(t *testing.T) {
		updated, err := s.ToggleStatus(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.StatusInactive, updated.Status)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := s.ToggleStatus(ctx, "missing")
		assert.ErrorIs(t, err, entry.ErrNotFound{ID: "missing"})
	})
}

func TestStore_PersistSurvivesCanceledRequest(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Save", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), testKey, mock.Anything).Return(nil).Once()
	s := NewStore(testLogger(), repo, testKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Add(ctx, linkDraft("late", "https://a.test"))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testLogger(), memory.NewRepository(), testKey)

	style := entry.DefaultStyle()
	style.FgColor = "#112233"
	src, err := s.Add(ctx, entry.Draft{
		Name:        "Team card",
		Description: "front desk",
		Payload: entry.CardPayload{
			Target: entry.CardPlaceholder,
			Card:   entry.ContactCard{Name: "Ana", Links: []entry.Link{{Label: "site", URL: "https://ana.test"}}},
		},
		Style: style,
	})
	require.NoError(t, err)
	_, _, err = s.RecordScan(ctx, src.ID, "")
	require.NoError(t, err)
	inactive := entry.StatusInactive
	_, err = s.Update(ctx, src.ID, entry.Patch{Status: &inactive})
	require.NoError(t, err)

	dup, err := s.Duplicate(ctx, src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Team card (Copy)", dup.Name)
	assert.NotEqual(t, src.Name, dup.Name)
	assert.Equal(t, src.Payload, dup.Payload)
	assert.Equal(t, src.Style, dup.Style)
	assert.Equal(t, src.Description, dup.Description)
	assert.Equal(t, entry.StatusActive, dup.Status)
	assert.Empty(t, dup.ScanLog)
	assert.Equal(t, dup.ID, s.List()[0].ID)

	_, err = s.Duplicate(ctx, "missing")
	assert.ErrorIs(t, err, entry.ErrNotFound{})
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testLogger(), memory.NewRepository(), testKey)
	_, _ = s.Add(ctx, linkDraft("Menu", "https://menu.test"))
	_, _ = s.Add(ctx, linkDraft("Booth", "https://booth.test"))

	got := s.Search("MENU")
	require.Len(t, got, 1)
	assert.Equal(t, "Menu", got[0].Name)
	assert.Len(t, s.Search(""), 2)
}

func TestStore_PersistedMatchesMemoryAfterMixedOperations(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	s := NewStore(testLogger(), repo, testKey)

	var ids []string
	for i := 0; i < 10; i++ {
		e, err := s.Add(ctx, linkDraft(fmt.Sprintf("entry %d", i), fmt.Sprintf("https://%d.test", i)))
		require.NoError(t, err)
		ids = append(ids, e.ID)

		switch i % 3 {
		case 1:
			desc := "updated"
			_, err = s.Update(ctx, ids[i-1], entry.Patch{Description: &desc})
			require.NoError(t, err)
		case 2:
			require.NoError(t, s.Remove(ctx, ids[i-2]))
		}
		assert.Equal(t, s.List(), persisted(t, repo))
	}
}

func TestStore_ReturnedEntriesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testLogger(), memory.NewRepository(), testKey)
	e, err := s.Add(ctx, linkDraft("a", "https://a.test"))
	require.NoError(t, err)
	_, _, err = s.RecordScan(ctx, e.ID, "")
	require.NoError(t, err)

	list := s.List()
	list[0].Name = "mutated"
	list[0].ScanLog[0].Device = entry.DeviceMobile

	got, _ := s.Get(e.ID)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, entry.DeviceDesktop, got.ScanLog[0].Device)
}
