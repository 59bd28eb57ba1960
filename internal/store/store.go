// Package store owns the in-memory list of entries and mirrors every mutation
// to a durable entry.Repository. Operations are serialized: each one runs to
// completion before the next starts.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// DuplicateSuffix is appended to the name of a duplicated entry.
const DuplicateSuffix = " (Copy)"

type Store struct {
	mu      sync.Mutex
	repo    entry.Repository
	key     string
	logger  *slog.Logger
	entries []entry.Entry

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock overrides the time source used for createdAt and scan timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source used for new entries.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(logger *slog.Logger, repo entry.Repository, key string, opts ...Option) *Store {
	s := &Store{
		repo:    repo,
		key:     key,
		logger:  logger.With("component", "entry_store", "key", key),
		entries: []entry.Entry{},
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing key
// yields an empty list. Unreadable or unparsable data also yields an empty
// list and is reported as entry.StorageReadError, which callers treat as a
// warning.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []entry.Entry{}

	data, err := s.repo.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, entry.ErrNoData) {
			s.logger.Info("No stored entries, starting empty")
			return nil
		}
		s.logger.Warn("Failed to read stored entries, starting empty", "error", err)
		return entry.StorageReadError{Key: s.key, Err: err}
	}

	entries, err := entry.DecodeList(data)
	if err != nil {
		s.logger.Warn("Stored entries are unparsable, starting empty", "error", err)
		return entry.StorageReadError{Key: s.key, Err: err}
	}

	s.entries = s.dedupe(entries)
	s.logger.Info("Loaded entries", "count", len(s.entries))
	return nil
}

// dedupe drops stored entries without an id and every repeat of an id,
// keeping the first occurrence.
func (s *Store) dedupe(entries []entry.Entry) []entry.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]entry.Entry, 0, len(entries))
	for i, e := range entries {
		switch {
		case e.ID == "":
			s.logger.Warn("Dropping stored entry without id", "index", i, "name", e.Name)
		case seen[e.ID]:
			s.logger.Warn("Dropping stored entry with repeated id", "index", i, "id", e.ID)
		default:
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

// Add stores a new entry built from d at the front of the list.
func (s *Store) Add(ctx context.Context, d entry.Draft) (entry.Entry, error) {
	if err := d.Validate(); err != nil {
		return entry.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.addLocked(d)
	return e.Clone(), s.persistLocked(ctx)
}

func (s *Store) addLocked(d entry.Draft) entry.Entry {
	status := d.Status
	if status == "" {
		status = entry.StatusActive
	}
	e := entry.Entry{
		ID:          s.newID(),
		Name:        d.Name,
		Description: d.Description,
		Payload:     d.Payload,
		Style:       d.Style,
		CreatedAt:   entry.Timestamp(s.now()),
		Status:      status,
		ScanLog:     []entry.ScanEvent{},
	}
	e = e.Clone()
	s.entries = append([]entry.Entry{e}, s.entries...)
	s.logger.Debug("Entry added", "id", e.ID, "kind", e.Kind())
	return e
}

// Update merges p into the entry with the given id.
func (s *Store) Update(ctx context.Context, id string, p entry.Patch) (entry.Entry, error) {
	if err := p.Validate(); err != nil {
		return entry.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Update of unknown entry ignored", "id", id)
		return entry.Entry{}, entry.ErrNotFound{ID: id}
	}

	p.Apply(&s.entries[i])
	updated := s.entries[i].Clone()
	return updated, s.persistLocked(ctx)
}

// Remove deletes the entry with the given id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Remove of unknown entry ignored", "id", id)
		return nil
	}

	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return s.persistLocked(ctx)
}

// ToggleStatus flips the entry between active and inactive.
func (s *Store) ToggleStatus(ctx context.Context, id string) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Toggle of unknown entry ignored", "id", id)
		return entry.Entry{}, entry.ErrNotFound{ID: id}
	}

	s.entries[i].Status = s.entries[i].Status.Toggle()
	return s.entries[i].Clone(), s.persistLocked(ctx)
}

// RecordScan appends a scan event classified from userAgent to the entry's log.
// Timestamps within one log never decrease.
func (s *Store) RecordScan(ctx context.Context, id, userAgent string) (entry.Entry, entry.ScanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Scan of unknown entry ignored", "id", id)
		return entry.Entry{}, entry.ScanEvent{}, entry.ErrNotFound{ID: id}
	}
	return s.recordScanLocked(ctx, i, userAgent)
}

// RecordActiveScan is RecordScan for active entries only. An inactive entry
// is returned unchanged with entry.ErrInactive.
func (s *Store) RecordActiveScan(ctx context.Context, id, userAgent string) (entry.Entry, entry.ScanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Scan of unknown entry ignored", "id", id)
		return entry.Entry{}, entry.ScanEvent{}, entry.ErrNotFound{ID: id}
	}
	if s.entries[i].Status != entry.StatusActive {
		return s.entries[i].Clone(), entry.ScanEvent{}, entry.ErrInactive
	}
	return s.recordScanLocked(ctx, i, userAgent)
}

func (s *Store) recordScanLocked(ctx context.Context, i int, userAgent string) (entry.Entry, entry.ScanEvent, error) {
	ts := entry.Timestamp(s.now())
	scans := s.entries[i].ScanLog
	if n := len(scans); n > 0 && ts.Before(scans[n-1].Timestamp) {
		ts = scans[n-1].Timestamp
	}
	ev := entry.ScanEvent{Timestamp: ts, Device: entry.ClassifyDevice(userAgent)}
	s.entries[i].ScanLog = append(scans, ev)

	return s.entries[i].Clone(), ev, s.persistLocked(ctx)
}

// Duplicate adds a copy of the entry with the given id. The copy gets a new
// id, a fresh createdAt, an empty scan log and active status.
func (s *Store) Duplicate(ctx context.Context, id string) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		s.logger.Info("Duplicate of unknown entry ignored", "id", id)
		return entry.Entry{}, entry.ErrNotFound{ID: id}
	}

	src := s.entries[i].Clone()
	e := s.addLocked(entry.Draft{
		Name:        src.Name + DuplicateSuffix,
		Description: src.Description,
		Payload:     src.Payload,
		Style:       src.Style,
		Status:      entry.StatusActive,
	})
	return e.Clone(), s.persistLocked(ctx)
}

// List returns a copy of every entry, most recent first.
func (s *Store) List() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entry.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(id string) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return entry.Entry{}, entry.ErrNotFound{ID: id}
	}
	return s.entries[i].Clone(), nil
}

// Search returns the entries matching query, in list order.
func (s *Store) Search(query string) []entry.Entry {
	return entry.Filter(s.List(), query)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked overwrites the durable mirror with the full list. The
// in-memory list stays authoritative when the write fails. The write outlives
// a canceled request so the mirror never lags an applied change.
func (s *Store) persistLocked(ctx context.Context) error {
	data, err := entry.EncodeList(s.entries)
	if err != nil {
		s.logger.Error("Failed to encode entries", "error", err)
		return entry.StorageWriteError{Key: s.key, Err: err}
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), s.key, data); err != nil {
		s.logger.Warn("Failed to persist entries", "error", err)
		return entry.StorageWriteError{Key: s.key, Err: err}
	}
	return nil
}
