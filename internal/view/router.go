// Package view selects the top-level dashboard screen. The Router is a small
// state machine: list, wizard (create or edit), detail and public render.
package view

import (
	"errors"
	"fmt"

	"github.com/corp-qr-hub/internal/domain/entry"
)

type Screen string

const (
	ScreenList         Screen = "list"
	ScreenWizard       Screen = "wizard"
	ScreenDetail       Screen = "detail"
	ScreenPublicRender Screen = "public"
)

type WizardMode string

const (
	ModeCreate WizardMode = "create"
	ModeEdit   WizardMode = "edit"
)

// ErrIllegalTransition is returned for a move the current screen does not
// allow. The router state is left unchanged.
var ErrIllegalTransition = errors.New("illegal view transition")

// State is the current screen. EntryID is set for edit, detail and public
// render; it is empty for the list and for create.
type State struct {
	Screen  Screen
	Mode    WizardMode
	EntryID string
}

func (s State) String() string {
	switch {
	case s.Screen == ScreenWizard:
		if s.EntryID != "" {
			return fmt.Sprintf("%s(%s:%s)", s.Screen, s.Mode, s.EntryID)
		}
		return fmt.Sprintf("%s(%s)", s.Screen, s.Mode)
	case s.EntryID != "":
		return fmt.Sprintf("%s(%s)", s.Screen, s.EntryID)
	default:
		return string(s.Screen)
	}
}

// Router is not safe for concurrent use; callers serialize per session.
type Router struct {
	state State
}

func NewRouter() *Router {
	return &Router{state: State{Screen: ScreenList}}
}

func (r *Router) State() State { return r.state }

func (r *Router) illegal(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, action, r.state)
}

// Add opens the wizard in create mode.
func (r *Router) Add() error {
	if r.state.Screen != ScreenList {
		return r.illegal("add")
	}
	r.state = State{Screen: ScreenWizard, Mode: ModeCreate}
	return nil
}

// Edit opens the wizard on an existing entry.
func (r *Router) Edit(e entry.Entry) error {
	if r.state.Screen != ScreenList || e.ID == "" {
		return r.illegal("edit")
	}
	r.state = State{Screen: ScreenWizard, Mode: ModeEdit, EntryID: e.ID}
	return nil
}

// Cancel leaves the wizard without saving.
func (r *Router) Cancel() error {
	if r.state.Screen != ScreenWizard {
		return r.illegal("cancel")
	}
	r.state = State{Screen: ScreenList}
	return nil
}

// Saved leaves the wizard after a successful save.
func (r *Router) Saved() error {
	if r.state.Screen != ScreenWizard {
		return r.illegal("save")
	}
	r.state = State{Screen: ScreenList}
	return nil
}

// Analytics opens the detail screen of an entry.
func (r *Router) Analytics(id string) error {
	if r.state.Screen != ScreenList || id == "" {
		return r.illegal("analytics")
	}
	r.state = State{Screen: ScreenDetail, EntryID: id}
	return nil
}

// Back returns to the list from the detail or public render screen.
func (r *Router) Back() error {
	switch r.state.Screen {
	case ScreenDetail, ScreenPublicRender:
		r.state = State{Screen: ScreenList}
		return nil
	}
	return r.illegal("back")
}

// ViewPublic renders the standalone page of e. It is allowed from any
// screen, but only for kinds that have a page.
func (r *Router) ViewPublic(e entry.Entry) error {
	if e.ID == "" || !e.Kind().HasPage() {
		return r.illegal("view public")
	}
	r.state = State{Screen: ScreenPublicRender, EntryID: e.ID}
	return nil
}

// Reset returns to the list, for example when the selected entry vanished.
func (r *Router) Reset() {
	r.state = State{Screen: ScreenList}
}
