// Package wizard drives the three-step flow that turns user input into an
// entry.Draft: choose a kind, fill its content, then pick a style.
package wizard

import (
	"errors"
	"strconv"
	"strings"

	"github.com/corp-qr-hub/internal/domain/entry"
)

type Step int

const (
	StepChooseKind Step = iota
	StepFillContent
	StepChooseStyle
)

func (s Step) String() string {
	switch s {
	case StepChooseKind:
		return "kind"
	case StepFillContent:
		return "content"
	case StepChooseStyle:
		return "style"
	default:
		return "unknown"
	}
}

// DefaultCTALabel is the call-to-action caption of a new event page.
const DefaultCTALabel = "Register"

var (
	ErrNoNextStep     = errors.New("wizard is already at its last step")
	ErrNoPreviousStep = errors.New("wizard is already at its first step")
	ErrKindLocked     = errors.New("kind can only be chosen on the first step")
)

// KindOption describes a kind on the first step.
type KindOption struct {
	Kind        entry.Kind
	Label       string
	Description string
}

var kindOptions = []KindOption{
	{Kind: entry.KindLink, Label: "Website", Description: "Direct link to a site or landing page"},
	{Kind: entry.KindMessaging, Label: "WhatsApp", Description: "Open a chat straight in the app"},
	{Kind: entry.KindEmail, Label: "E-mail", Description: "Send a pre-filled e-mail"},
	{Kind: entry.KindPhone, Label: "Phone", Description: "Place a call"},
	{Kind: entry.KindLocation, Label: "Location", Description: "Address on a map"},
	{Kind: entry.KindPayment, Label: "Payment", Description: "Receive an instant payment"},
	{Kind: entry.KindContactCard, Label: "Business card", Description: "Bio page with contacts"},
	{Kind: entry.KindEventPage, Label: "Event page", Description: "Event details and RSVP"},
}

// KindOptions lists the selectable kinds in display order.
func KindOptions() []KindOption {
	return append([]KindOption(nil), kindOptions...)
}

// Field is one input of a content form.
type Field struct {
	Name  string
	Label string
	Value string
}

// Form is the content step for the selected kind. Kinds without a dedicated
// form get a placeholder form with no fields.
type Form struct {
	Kind        entry.Kind
	Placeholder bool
	Fields      []Field
}

// Controller holds the wizard state for one create or edit session. It is not
// safe for concurrent use.
type Controller struct {
	step      Step
	editingID string

	kind        entry.Kind
	name        string
	description string
	literals    map[entry.Kind]string
	card        entry.ContactCard
	event       entry.EventPage
	style       entry.Style
}

// New starts a create session on the Link kind with the given style.
func New(defaultStyle entry.Style) *Controller {
	return &Controller{
		step:     StepChooseKind,
		kind:     entry.KindLink,
		literals: make(map[entry.Kind]string),
		card: entry.ContactCard{
			Links: []entry.Link{},
			Theme: entry.DefaultTheme(),
		},
		event: entry.EventPage{
			CTALabel: DefaultCTALabel,
			Theme:    entry.DefaultTheme(),
		},
		style: defaultStyle,
	}
}

// FromEntry starts an edit session prefilled from e.
func FromEntry(e entry.Entry) *Controller {
	c := New(e.Style)
	c.editingID = e.ID
	c.name = e.Name
	c.description = e.Description

	e = e.Clone()
	switch p := e.Payload.(type) {
	case entry.Literal:
		c.kind = p.Kind()
		c.literals[p.Kind()] = p.Text
	case entry.CardPayload:
		c.kind = entry.KindContactCard
		c.card = p.Card
	case entry.EventPayload:
		c.kind = entry.KindEventPage
		c.event = p.Event
	}
	return c
}

func (c *Controller) Step() Step       { return c.step }
func (c *Controller) Kind() entry.Kind { return c.kind }
func (c *Controller) Name() string     { return c.name }

func (c *Controller) Description() string { return c.description }
func (c *Controller) Style() entry.Style  { return c.style }

// EditingID returns the id of the entry being edited, if any.
func (c *Controller) EditingID() (string, bool) {
	return c.editingID, c.editingID != ""
}

// Content returns the literal typed for the selected kind.
func (c *Controller) Content() string {
	return c.literals[c.kind]
}

func (c *Controller) Card() entry.ContactCard {
	card := c.card
	card.Links = append([]entry.Link{}, c.card.Links...)
	return card
}

func (c *Controller) Event() entry.EventPage { return c.event }

// Preview is the text the live preview encodes.
func (c *Controller) Preview() string {
	switch c.kind {
	case entry.KindContactCard:
		return entry.CardPlaceholder
	case entry.KindEventPage:
		return entry.EventPlaceholder
	}
	if text := c.Content(); text != "" {
		return text
	}
	return "Preview"
}

// Next moves one step forward. Forward moves need no validation.
func (c *Controller) Next() error {
	if c.step == StepChooseStyle {
		return ErrNoNextStep
	}
	c.step++
	return nil
}

// Back moves one step backward. Every field is kept.
func (c *Controller) Back() error {
	if c.step == StepChooseKind {
		return ErrNoPreviousStep
	}
	c.step--
	return nil
}

// SelectKind picks the kind and advances to the content step.
func (c *Controller) SelectKind(k entry.Kind) error {
	if c.step != StepChooseKind {
		return ErrKindLocked
	}
	if !k.Valid() {
		return entry.ValidationError{Field: "kind", Message: "unknown kind " + string(k)}
	}
	c.kind = k
	c.step = StepFillContent
	return nil
}

func (c *Controller) SetName(name string)               { c.name = name }
func (c *Controller) SetDescription(description string) { c.description = description }

// SetContent sets the literal of the selected kind.
func (c *Controller) SetContent(text string) error {
	if c.kind.HasPage() {
		return entry.ValidationError{Field: "content", Message: string(c.kind) + " has no literal content"}
	}
	c.literals[c.kind] = text
	return nil
}

func (c *Controller) SetCard(card entry.ContactCard) {
	card.Links = append([]entry.Link{}, card.Links...)
	c.card = card
}

func (c *Controller) SetEvent(event entry.EventPage) { c.event = event }
func (c *Controller) SetStyle(style entry.Style)     { c.style = style }

// Form returns the content form of the selected kind.
func (c *Controller) Form() Form {
	f := Form{Kind: c.kind}
	switch c.kind {
	case entry.KindLink:
		f.Fields = []Field{{Name: "url", Label: "Destination URL", Value: c.literals[c.kind]}}
	case entry.KindMessaging:
		f.Fields = []Field{{Name: "phone", Label: "Number with area code", Value: c.literals[c.kind]}}
	case entry.KindContactCard:
		f.Fields = []Field{
			{Name: "name", Label: "Full name", Value: c.card.Name},
			{Name: "role", Label: "Role", Value: c.card.Role},
			{Name: "company", Label: "Company", Value: c.card.Company},
			{Name: "email", Label: "E-mail", Value: c.card.Email},
			{Name: "phone", Label: "Phone", Value: c.card.Phone},
		}
	case entry.KindEventPage:
		f.Fields = []Field{
			{Name: "title", Label: "Event title", Value: c.event.Title},
			{Name: "date", Label: "Date", Value: c.event.Date},
			{Name: "time", Label: "Time", Value: c.event.Time},
			{Name: "location", Label: "Location", Value: c.event.Location},
			{Name: "description", Label: "Description", Value: c.event.Description},
			{Name: "ctaLabel", Label: "Button label", Value: c.event.CTALabel},
			{Name: "ctaUrl", Label: "Button URL", Value: c.event.CTAURL},
		}
	default:
		f.Placeholder = true
	}
	return f
}

// SetFormField sets one field of the selected kind's form by its Field.Name.
func (c *Controller) SetFormField(name, value string) error {
	switch c.kind {
	case entry.KindLink:
		if name == "url" {
			return c.SetContent(value)
		}
	case entry.KindMessaging:
		if name == "phone" {
			return c.SetContent(value)
		}
	case entry.KindContactCard:
		if setCardField(&c.card, name, value) {
			return nil
		}
	case entry.KindEventPage:
		if setEventField(&c.event, name, value) {
			return nil
		}
	}
	return entry.ValidationError{Field: name, Message: "not a field of the " + string(c.kind) + " form"}
}

func setCardField(card *entry.ContactCard, name, value string) bool {
	switch name {
	case "name":
		card.Name = value
	case "role":
		card.Role = value
	case "company":
		card.Company = value
	case "email":
		card.Email = value
	case "phone":
		card.Phone = value
	default:
		return false
	}
	return true
}

func setEventField(event *entry.EventPage, name, value string) bool {
	switch name {
	case "title":
		event.Title = value
	case "date":
		event.Date = value
	case "time":
		event.Time = value
	case "location":
		event.Location = value
	case "description":
		event.Description = value
	case "ctaLabel":
		event.CTALabel = value
	case "ctaUrl":
		event.CTAURL = value
	default:
		return false
	}
	return true
}

// SetStyleField sets one style attribute from its textual form, as submitted
// by the style step. Values are range-checked on Save.
func (c *Controller) SetStyleField(name, value string) error {
	switch name {
	case "fgColor":
		c.style.FgColor = value
	case "bgColor":
		c.style.BgColor = value
	case "level":
		c.style.Level = entry.Level(strings.ToUpper(value))
	case "includeLogo":
		on, err := parseCheckbox(value)
		if err != nil {
			return entry.ValidationError{Field: "style.includeLogo", Message: err.Error()}
		}
		c.style.IncludeLogo = on
	case "logoUrl":
		c.style.LogoURL = value
	case "logoSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return entry.ValidationError{Field: "style.logoSize", Message: "expected an integer"}
		}
		c.style.LogoSize = n
	case "borderRadius":
		n, err := strconv.Atoi(value)
		if err != nil {
			return entry.ValidationError{Field: "style.borderRadius", Message: "expected an integer"}
		}
		c.style.BorderRadius = n
	default:
		return entry.ValidationError{Field: name, Message: "not a style field"}
	}
	return nil
}

func parseCheckbox(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on":
		return true, nil
	case "", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}

// Save builds the draft. A blank name is rejected and leaves the wizard
// untouched. Page kinds carry their placeholder target with the record.
func (c *Controller) Save() (entry.Draft, error) {
	if strings.TrimSpace(c.name) == "" {
		return entry.Draft{}, entry.ValidationError{Field: "name", Message: "give your code a name"}
	}

	d := entry.Draft{
		Name:        c.name,
		Description: c.description,
		Style:       c.style,
		Status:      entry.StatusActive,
	}
	switch c.kind {
	case entry.KindContactCard:
		d.Payload = entry.CardPayload{Target: entry.CardPlaceholder, Card: c.Card()}
	case entry.KindEventPage:
		d.Payload = entry.EventPayload{Target: entry.EventPlaceholder, Event: c.event}
	default:
		lit, err := entry.NewLiteral(c.kind, c.literals[c.kind])
		if err != nil {
			return entry.Draft{}, err
		}
		d.Payload = lit
	}

	if err := d.Validate(); err != nil {
		return entry.Draft{}, err
	}
	return d, nil
}
