package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
	"github.com/corp-qr-hub/internal/store"
)

// ErrEntryInactive is returned when a scan targets a deactivated entry
var ErrEntryInactive = entry.ErrInactive

// EntryServiceImpl implements the EntryService interface
type EntryServiceImpl struct {
	store         *store.Store
	renderer      *render.Renderer
	notifier      ScanNotifier
	publicBaseURL string
	logger        *slog.Logger
	now           func() time.Time
}

// NewEntryService creates a new entry service. A nil notifier disables the
// scan event stream.
func NewEntryService(logger *slog.Logger, st *store.Store, renderer *render.Renderer, notifier ScanNotifier, publicBaseURL string) *EntryServiceImpl {
	if notifier == nil {
		notifier = NopScanNotifier{}
	}
	return &EntryServiceImpl{
		store:         st,
		renderer:      renderer,
		notifier:      notifier,
		publicBaseURL: publicBaseURL,
		logger:        logger.With("component", "entry_service"),
		now:           time.Now,
	}
}

func (s *EntryServiceImpl) List(query string) []entry.Entry {
	if query == "" {
		return s.store.List()
	}
	return s.store.Search(query)
}

func (s *EntryServiceImpl) Get(id string) (entry.Entry, error) {
	return s.store.Get(id)
}

func (s *EntryServiceImpl) Create(ctx context.Context, d entry.Draft) (entry.Entry, error) {
	e, err := s.store.Add(ctx, d)
	if err != nil && !isWriteWarning(err) {
		return entry.Entry{}, err
	}
	s.logger.Info("Entry created", "id", e.ID, "kind", e.Kind())
	return e, err
}

func (s *EntryServiceImpl) Update(ctx context.Context, id string, p entry.Patch) (entry.Entry, error) {
	e, err := s.store.Update(ctx, id, p)
	if err != nil && !isWriteWarning(err) {
		return entry.Entry{}, err
	}
	s.logger.Info("Entry updated", "id", id)
	return e, err
}

func (s *EntryServiceImpl) SetStatus(ctx context.Context, id string, status *entry.Status) (entry.Entry, error) {
	if status != nil {
		return s.Update(ctx, id, entry.Patch{Status: status})
	}
	e, err := s.store.ToggleStatus(ctx, id)
	if err != nil && !isWriteWarning(err) {
		return entry.Entry{}, err
	}
	s.logger.Info("Entry status toggled", "id", id, "status", e.Status)
	return e, err
}

func (s *EntryServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Entry deleted", "id", id)
	return nil
}

func (s *EntryServiceImpl) Duplicate(ctx context.Context, id string) (entry.Entry, error) {
	e, err := s.store.Duplicate(ctx, id)
	if err != nil && !isWriteWarning(err) {
		return entry.Entry{}, err
	}
	s.logger.Info("Entry duplicated", "source_id", id, "id", e.ID)
	return e, err
}

func (s *EntryServiceImpl) RecordScan(ctx context.Context, id, userAgent, correlationID string) (entry.Entry, error) {
	e, ev, err := s.store.RecordActiveScan(ctx, id, userAgent)
	switch {
	case errors.Is(err, ErrEntryInactive):
		s.logger.Info("Scan of inactive entry rejected", "id", id)
		return e, err
	case err != nil && !isWriteWarning(err):
		return entry.Entry{}, err
	}
	s.notifier.Notify(e, ev, correlationID)
	return e, err
}

func (s *EntryServiceImpl) Analytics(id string) (render.Summary, error) {
	e, err := s.store.Get(id)
	if err != nil {
		return render.Summary{}, err
	}
	return render.Summarize(e.ScanLog, s.now()), nil
}

func (s *EntryServiceImpl) QRCode(id string, size int) ([]byte, error) {
	e, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.renderer.PNG(s.EncodeTarget(e), size, e.Style)
}

func (s *EntryServiceImpl) Preview(text string, size int, style entry.Style) ([]byte, error) {
	return s.renderer.PNG(text, size, style)
}

func (s *EntryServiceImpl) EncodeTarget(e entry.Entry) string {
	return render.EncodeTarget(e, s.publicBaseURL)
}

func (s *EntryServiceImpl) PublicURL(id string) string {
	return render.PublicURL(s.publicBaseURL, id)
}

var _ EntryService = (*EntryServiceImpl)(nil)

// isWriteWarning reports whether err only says the durable mirror lagged
// behind an applied change.
func isWriteWarning(err error) bool {
	var writeErr entry.StorageWriteError
	return errors.As(err, &writeErr)
}
