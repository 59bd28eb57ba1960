// Package scan defines the ScanRecorded event published for every recorded
// scan and the archive that consumes it.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// Recorded is published once per appended scan event
type Recorded struct {
	EventID       string       `json:"event_id" bson:"_id"`
	EntryID       string       `json:"entry_id" bson:"entry_id"`
	Kind          entry.Kind   `json:"kind" bson:"kind"`
	Device        entry.Device `json:"device" bson:"device"`
	Timestamp     time.Time    `json:"timestamp" bson:"timestamp"`
	CorrelationID string       `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
}

// NewRecorded builds the event for a scan just appended to e's log.
func NewRecorded(e entry.Entry, ev entry.ScanEvent, correlationID string) Recorded {
	return Recorded{
		EventID:       uuid.New().String(),
		EntryID:       e.ID,
		Kind:          e.Kind(),
		Device:        ev.Device,
		Timestamp:     ev.Timestamp,
		CorrelationID: correlationID,
	}
}

var (
	ErrMissingEventID = errors.New("event_id is required")
	ErrMissingEntryID = errors.New("entry_id is required")
)

func (r Recorded) Validate() error {
	if r.EventID == "" {
		return ErrMissingEventID
	}
	if r.EntryID == "" {
		return ErrMissingEntryID
	}
	return nil
}

// ArchiveRepository stores consumed scan events
type ArchiveRepository interface {
	// Save returns ErrDuplicateEvent when the event id is already archived.
	Save(ctx context.Context, ev *Recorded) error
}

// ErrDuplicateEvent indicates the event was archived before
type ErrDuplicateEvent struct {
	EventID string
}

func (e ErrDuplicateEvent) Error() string {
	return "scan event already archived: " + e.EventID
}

func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	if t.EventID == "" {
		return true
	}
	return e.EventID == t.EventID
}
