package entry

import (
	"encoding/json"
	"fmt"
	"time"
)

// entryJSON is the persisted layout of an Entry. Timestamps are integer
// milliseconds since the epoch.
type entryJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Style       Style           `json:"style"`
	CreatedAt   int64           `json:"createdAt"`
	Status      Status          `json:"status"`
	ScanLog     []ScanEvent     `json:"scanLog"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	payload, err := MarshalPayload(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Kind:        e.Kind(),
		Payload:     payload,
		Style:       e.Style,
		CreatedAt:   e.CreatedAt.UnixMilli(),
		Status:      e.Status,
		ScanLog:     e.ScanLog,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("entry %s: unknown kind %q", w.ID, w.Kind)
	}
	payload, err := UnmarshalPayload(w.Kind, w.Payload)
	if err != nil {
		return fmt.Errorf("entry %s: %w", w.ID, err)
	}
	status := w.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return fmt.Errorf("entry %s: unknown status %q", w.ID, w.Status)
	}
	*e = Entry{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Payload:     payload,
		Style:       w.Style,
		CreatedAt:   time.UnixMilli(w.CreatedAt).UTC(),
		Status:      status,
		ScanLog:     w.ScanLog,
	}
	return nil
}

// EncodeList serializes the full list in the persisted layout.
func EncodeList(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// DecodeList parses a persisted list.
func DecodeList(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
