package entry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder encode targets stored for page kinds. The renderer swaps them
// for the entry's public URL.
const (
	CardPlaceholder  = "#/view/bio-placeholder"
	EventPlaceholder = "#/view/event-placeholder"
)

// Payload is the kind-specific content of an entry. The set of variants is
// closed: Literal, CardPayload and EventPayload.
type Payload interface {
	Kind() Kind
	// EncodeText is the literal stored as the encode target.
	EncodeText() string
	isPayload()
}

// Literal is the payload of kinds that encode a string directly.
type Literal struct {
	kind Kind
	Text string
}

// NewLiteral builds a literal payload. Page kinds are rejected.
func NewLiteral(kind Kind, text string) (Literal, error) {
	if !kind.Valid() {
		return Literal{}, ValidationError{Field: "kind", Message: "unknown kind " + string(kind)}
	}
	if kind.HasPage() {
		return Literal{}, ValidationError{Field: "kind", Message: string(kind) + " requires a page payload"}
	}
	return Literal{kind: kind, Text: text}, nil
}

func (l Literal) Kind() Kind         { return l.kind }
func (l Literal) EncodeText() string { return l.Text }
func (Literal) isPayload()           {}

// Theme colors a public page.
type Theme struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
}

func DefaultTheme() Theme {
	return Theme{Primary: "#9333ea", Background: "#faf5ff"}
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ContactCard is the record behind a business-card page.
type ContactCard struct {
	Photo   string `json:"photo,omitempty"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Links   []Link `json:"links"`
	Theme   Theme  `json:"theme"`
}

// EventPage is the record behind an event landing page.
type EventPage struct {
	Banner      string `json:"banner,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	CTALabel    string `json:"ctaLabel"`
	CTAURL      string `json:"ctaUrl"`
	Theme       Theme  `json:"theme"`
}

// CardPayload is the ContactCard variant.
type CardPayload struct {
	Target string
	Card   ContactCard
}

func (CardPayload) Kind() Kind           { return KindContactCard }
func (p CardPayload) EncodeText() string { return p.Target }
func (CardPayload) isPayload()           {}

// EventPayload is the EventPage variant.
type EventPayload struct {
	Target string
	Event  EventPage
}

func (EventPayload) Kind() Kind           { return KindEventPage }
func (p EventPayload) EncodeText() string { return p.Target }
func (EventPayload) isPayload()           {}

func validatePayload(p Payload) error {
	if p == nil {
		return ValidationError{Field: "payload", Message: "payload is required"}
	}
	if !p.Kind().Valid() {
		return ValidationError{Field: "kind", Message: "unknown kind " + string(p.Kind())}
	}
	switch v := p.(type) {
	case CardPayload:
		for _, l := range v.Card.Links {
			if strings.TrimSpace(l.URL) == "" {
				return ValidationError{Field: "payload.links", Message: "link url is required"}
			}
		}
	}
	return nil
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case CardPayload:
		if v.Card.Links != nil {
			v.Card.Links = append(make([]Link, 0, len(v.Card.Links)), v.Card.Links...)
		}
		return v
	default:
		return p
	}
}

type pagePayloadJSON struct {
	Target      string       `json:"target"`
	ContactCard *ContactCard `json:"contactCard,omitempty"`
	EventPage   *EventPage   `json:"eventPage,omitempty"`
}

// MarshalPayload encodes a payload in the persisted layout: a JSON string for
// literals, an object for page kinds.
func MarshalPayload(p Payload) (json.RawMessage, error) {
	switch v := p.(type) {
	case Literal:
		return json.Marshal(v.Text)
	case CardPayload:
		card := v.Card
		return json.Marshal(pagePayloadJSON{Target: v.Target, ContactCard: &card})
	case EventPayload:
		event := v.Event
		return json.Marshal(pagePayloadJSON{Target: v.Target, EventPage: &event})
	case nil:
		return nil, fmt.Errorf("nil payload")
	default:
		return nil, fmt.Errorf("unsupported payload type %T", p)
	}
}

// UnmarshalPayload decodes raw according to kind.
func UnmarshalPayload(kind Kind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case KindContactCard:
		var page pagePayloadJSON
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		if page.ContactCard == nil {
			return nil, fmt.Errorf("decode %s payload: missing contactCard", kind)
		}
		return CardPayload{Target: page.Target, Card: *page.ContactCard}, nil
	case KindEventPage:
		var page pagePayloadJSON
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		if page.EventPage == nil {
			return nil, fmt.Errorf("decode %s payload: missing eventPage", kind)
		}
		return EventPayload{Target: page.Target, Event: *page.EventPage}, nil
	default:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return NewLiteral(kind, text)
	}
}
