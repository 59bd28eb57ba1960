package handler

import (
	"encoding/json"
	"time"

	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
)

// EntryRequest represents a request to create an entry. Payload follows the
// persisted layout: a JSON string for literal kinds, an object with
// contactCard or eventPage for page kinds.
type EntryRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Kind        string          `json:"kind" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
	Style       *entry.Style    `json:"style"`
	Status      string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

// UpdateEntryRequest replaces only the fields present. Kind may be omitted
// when the payload keeps the entry's current kind.
type UpdateEntryRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Style       *entry.Style    `json:"style"`
	Status      *string         `json:"status" binding:"omitempty,oneof=active inactive"`
}

// StatusRequest sets the status explicitly; an empty body toggles it.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// QRCodeParams represents the query of the code image endpoint
type QRCodeParams struct {
	Size int `form:"size" binding:"min=0"`
}

type EntryResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind"`
	Payload      json.RawMessage `json:"payload"`
	Style        entry.Style     `json:"style"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	ScanCount    int             `json:"scan_count"`
	LastScanAt   string          `json:"last_scan_at,omitempty"`
	EncodeTarget string          `json:"encode_target"`
	PublicURL    string          `json:"public_url,omitempty"`
}

type ScanResponse struct {
	Timestamp string `json:"timestamp"`
	Device    string `json:"device"`
}

type AnalyticsResponse struct {
	EntryID    string         `json:"entry_id"`
	Total      int            `json:"total"`
	LastScanAt string         `json:"last_scan_at,omitempty"`
	Weekly     []render.Point `json:"weekly"`
	Devices    []render.Point `json:"devices"`
}

// parsePayload decodes a request payload for kind. Page payloads without a
// target get the kind's placeholder.
func parsePayload(kind entry.Kind, raw json.RawMessage) (entry.Payload, error) {
	p, err := entry.UnmarshalPayload(kind, raw)
	if err != nil {
		return nil, entry.ValidationError{Field: "payload", Message: err.Error()}
	}
	switch v := p.(type) {
	case entry.CardPayload:
		if v.Target == "" {
			v.Target = entry.CardPlaceholder
		}
		return v, nil
	case entry.EventPayload:
		if v.Target == "" {
			v.Target = entry.EventPlaceholder
		}
		return v, nil
	}
	return p, nil
}

func (r EntryRequest) toDraft() (entry.Draft, error) {
	kind, err := entry.ParseKind(r.Kind)
	if err != nil {
		return entry.Draft{}, err
	}
	payload, err := parsePayload(kind, r.Payload)
	if err != nil {
		return entry.Draft{}, err
	}

	style := entry.DefaultStyle()
	if r.Style != nil {
		style = *r.Style
	}
	return entry.Draft{
		Name:        r.Name,
		Description: r.Description,
		Payload:     payload,
		Style:       style,
		Status:      entry.Status(r.Status),
	}, nil
}

// toPatch builds the patch; currentKind applies when the request names none.
func (r UpdateEntryRequest) toPatch(currentKind entry.Kind) (entry.Patch, error) {
	p := entry.Patch{
		Name:        r.Name,
		Description: r.Description,
		Style:       r.Style,
	}
	if r.Status != nil {
		status := entry.Status(*r.Status)
		p.Status = &status
	}

	if len(r.Payload) == 0 {
		if r.Kind != "" && entry.Kind(r.Kind) != currentKind {
			return entry.Patch{}, entry.ValidationError{Field: "payload", Message: "changing the kind requires a payload"}
		}
		return p, nil
	}

	kind := currentKind
	if r.Kind != "" {
		k, err := entry.ParseKind(r.Kind)
		if err != nil {
			return entry.Patch{}, err
		}
		kind = k
	}
	payload, err := parsePayload(kind, r.Payload)
	if err != nil {
		return entry.Patch{}, err
	}
	p.Payload = payload
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func mapScansToResponse(scans []entry.ScanEvent) []ScanResponse {
	out := make([]ScanResponse, len(scans))
	for i, ev := range scans {
		out[i] = ScanResponse{Timestamp: formatTime(ev.Timestamp), Device: string(ev.Device)}
	}
	return out
}

func mapAnalyticsToResponse(id string, s render.Summary) AnalyticsResponse {
	resp := AnalyticsResponse{
		EntryID: id,
		Total:   s.Total,
		Weekly:  s.Weekly,
		Devices: s.Devices,
	}
	if s.LastAt != nil {
		resp.LastScanAt = formatTime(*s.LastAt)
	}
	return resp
}
