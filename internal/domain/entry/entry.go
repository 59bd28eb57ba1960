// Package entry defines the scannable-code record managed by the dashboard:
// its kind, kind-specific payload, appearance, lifecycle status and scan history.
package entry

import (
	"strings"
	"time"
)

// Kind is the fixed category of an entry. It determines the payload shape and
// where a scan of the code lands.
type Kind string

const (
	KindLink        Kind = "Link"
	KindMessaging   Kind = "Messaging"
	KindEmail       Kind = "Email"
	KindPhone       Kind = "Phone"
	KindLocation    Kind = "Location"
	KindPayment     Kind = "Payment"
	KindContactCard Kind = "ContactCard"
	KindEventPage   Kind = "EventPage"
)

var allKinds = []Kind{
	KindLink,
	KindMessaging,
	KindEmail,
	KindPhone,
	KindLocation,
	KindPayment,
	KindContactCard,
	KindEventPage,
}

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ValidationError{Field: "kind", Message: "unknown kind " + s}
	}
	return k, nil
}

func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// HasPage reports whether the kind renders its payload as a standalone page
// instead of encoding a literal directly.
func (k Kind) HasPage() bool {
	return k == KindContactCard || k == KindEventPage
}

// Status is the lifecycle state of an entry
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// Entry is one persisted scannable-code record.
type Entry struct {
	ID          string
	Name        string
	Description string
	Payload     Payload
	Style       Style
	CreatedAt   time.Time
	Status      Status
	ScanLog     []ScanEvent
}

// Kind is derived from the payload variant, so an entry can never carry a
// payload of another kind.
func (e Entry) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// Clone returns a deep copy that shares no slices with e.
func (e Entry) Clone() Entry {
	c := e
	if e.ScanLog != nil {
		c.ScanLog = append(make([]ScanEvent, 0, len(e.ScanLog)), e.ScanLog...)
	}
	if e.Payload != nil {
		c.Payload = clonePayload(e.Payload)
	}
	return c
}

// Draft is an entry under construction that has not been persisted yet.
type Draft struct {
	Name        string
	Description string
	Payload     Payload
	Style       Style
	Status      Status
}

// Validate checks the fields required before a draft can be stored.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if err := validatePayload(d.Payload); err != nil {
		return err
	}
	if d.Status != "" && !d.Status.Valid() {
		return ValidationError{Field: "status", Message: "unknown status " + string(d.Status)}
	}
	return d.Style.Validate()
}

// Patch holds the fields an update replaces; nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Payload     Payload
	Style       *Style
	Status      *Status
}

// Validate checks only the fields that are set.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if p.Payload != nil {
		if err := validatePayload(p.Payload); err != nil {
			return err
		}
	}
	if p.Style != nil {
		if err := p.Style.Validate(); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return ValidationError{Field: "status", Message: "unknown status " + string(*p.Status)}
	}
	return nil
}

// Apply merges the patch into e. ID, CreatedAt and ScanLog are never touched.
func (p Patch) Apply(e *Entry) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Payload != nil {
		e.Payload = clonePayload(p.Payload)
	}
	if p.Style != nil {
		e.Style = *p.Style
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}

// PatchFromDraft builds the patch an edit-save applies: every editable field
// is replaced.
func PatchFromDraft(d Draft) Patch {
	p := Patch{
		Name:        &d.Name,
		Description: &d.Description,
		Payload:     d.Payload,
		Style:       &d.Style,
	}
	if d.Status != "" {
		p.Status = &d.Status
	}
	return p
}

// Timestamp normalizes t to the precision that survives persistence.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
