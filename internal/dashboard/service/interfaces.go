package service

import (
	"context"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
)

// EntryService defines the operations the dashboard and the public pages run
// against the entry store.
type EntryService interface {
	// List returns the entries matching query, most recent first. An empty
	// query lists everything.
	List(query string) []entry.Entry

	// Get returns entry.ErrNotFound when the id is unknown
	Get(id string) (entry.Entry, error)

	// Create, Update, SetStatus, Delete and Duplicate return the applied
	// result together with entry.StorageWriteError when only the durable
	// write failed.
	Create(ctx context.Context, d entry.Draft) (entry.Entry, error)
	Update(ctx context.Context, id string, p entry.Patch) (entry.Entry, error)

	// SetStatus sets the status of an entry, or toggles it when status is nil.
	SetStatus(ctx context.Context, id string, status *entry.Status) (entry.Entry, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (entry.Entry, error)

	// RecordScan appends a scan to an active entry's log. Inactive entries
	// are left untouched and reported with ErrEntryInactive.
	RecordScan(ctx context.Context, id, userAgent, correlationID string) (entry.Entry, error)

	Analytics(id string) (render.Summary, error)

	// QRCode renders the code of a stored entry; Preview renders arbitrary
	// text for the wizard.
	QRCode(id string, size int) ([]byte, error)
	Preview(text string, size int, style entry.Style) ([]byte, error)

	// EncodeTarget is the text the code of e encodes.
	EncodeTarget(e entry.Entry) string
	PublicURL(id string) string
}

// ScanNotifier fans recorded scans out to the event stream. Notify must not
// block the request that recorded the scan.
type ScanNotifier interface {
	Notify(e entry.Entry, ev entry.ScanEvent, correlationID string)
	Close() error
}
