package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corp-qr-hub/internal/domain/entry"
)

func literalEntry(t *testing.T, id string) entry.Entry {
	t.Helper()
	lit, err := entry.NewLiteral(entry.KindLink, "https://example.com")
	require.NoError(t, err)
	return entry.Entry{ID: id, Name: "Site", Payload: lit, Style: entry.DefaultStyle()}
}

func cardEntry(id string) entry.Entry {
	return entry.Entry{
		ID:      id,
		Name:    "Card",
		Payload: entry.CardPayload{Target: entry.CardPlaceholder, Card: entry.ContactCard{Name: "Ana"}},
		Style:   entry.DefaultStyle(),
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, State{Screen: ScreenList}, r.State())
}

func TestRouter_LegalTransitions(t *testing.T) {
	t.Run("AddThenCancel", func(t *testing.T) {
		r := NewRouter()
		require.NoError(t, r.Add())
		assert.Equal(t, State{Screen: ScreenWizard, Mode: ModeCreate}, r.State())
		require.NoError(t, r.Cancel())
		assert.Equal(t, ScreenList, r.State().Screen)
	})

	t.Run("EditThenSave", func(t *testing.T) {
		r := NewRouter()
		require.NoError(t, r.Edit(literalEntry(t, "e-1")))
		assert.Equal(t, State{Screen: ScreenWizard, Mode: ModeEdit, EntryID: "e-1"}, r.State())
		require.NoError(t, r.Saved())
		assert.Equal(t, State{Screen: ScreenList}, r.State())
	})

	t.Run("AnalyticsThenBack", func(t *testing.T) {
		r := NewRouter()
		require.NoError(t, r.Analytics("e-1"))
		assert.Equal(t, State{Screen: ScreenDetail, EntryID: "e-1"}, r.State())
		require.NoError(t, r.Back())
		assert.Equal(t, State{Screen: ScreenList}, r.State())
	})

	t.Run("PublicRenderFromAnyScreen", func(t *testing.T) {
		setups := map[string]func(t *testing.T, r *Router){
			"list":   func(t *testing.T, r *Router) {},
			"wizard": func(t *testing.T, r *Router) { require.NoError(t, r.Add()) },
			"detail": func(t *testing.T, r *Router) { require.NoError(t, r.Analytics("e-1")) },
			"public": func(t *testing.T, r *Router) { require.NoError(t, r.ViewPublic(cardEntry("e-0"))) },
		}
		for name, setup := range setups {
			t.Run(name, func(t *testing.T) {
				r := NewRouter()
				setup(t, r)
				require.NoError(t, r.ViewPublic(cardEntry("e-2")))
				assert.Equal(t, State{Screen: ScreenPublicRender, EntryID: "e-2"}, r.State())
				require.NoError(t, r.Back())
				assert.Equal(t, ScreenList, r.State().Screen)
			})
		}
	})
}

func TestRouter_IllegalTransitions(t *testing.T) {
	link := literalEntry(t, "e-1")

	cases := []struct {
		name   string
		setup  func(t *testing.T, r *Router)
		action func(r *Router) error
	}{
		{
			name:   "BackFromList",
			setup:  func(t *testing.T, r *Router) {},
			action: func(r *Router) error { return r.Back() },
		},
		{
			name:   "CancelFromList",
			setup:  func(t *testing.T, r *Router) {},
			action: func(r *Router) error { return r.Cancel() },
		},
		{
			name:   "SavedFromDetail",
			setup:  func(t *testing.T, r *Router) { require.NoError(t, r.Analytics("e-1")) },
			action: func(r *Router) error { return r.Saved() },
		},
		{
			name:   "AddFromWizard",
			setup:  func(t *testing.T, r *Router) { require.NoError(t, r.Add()) },
			action: func(r *Router) error { return r.Add() },
		},
		{
			name:   "BackFromWizard",
			setup:  func(t *testing.T, r *Router) { require.NoError(t, r.Add()) },
			action: func(r *Router) error { return r.Back() },
		},
		{
			name:   "EditFromDetail",
			setup:  func(t *testing.T, r *Router) { require.NoError(t, r.Analytics("e-1")) },
			action: func(r *Router) error { return r.Edit(cardEntry("e-2")) },
		},
		{
			name:   "AnalyticsFromDetail",
			setup:  func(t *testing.T, r *Router) { require.NoError(t, r.Analytics("e-1")) },
			action: func(r *Router) error { return r.Analytics("e-2") },
		},
		{
			name:   "EditWithoutEntry",
			setup:  func(t *testing.T, r *Router) {},
			action: func(r *Router) error { return r.Edit(entry.Entry{}) },
		},
		{
			name:   "AnalyticsWithoutEntry",
			setup:  func(t *testing.T, r *Router) {},
			action: func(r *Router) error { return r.Analytics("") },
		},
		{
			name:   "PublicRenderOfLiteralKind",
			setup:  func(t *testing.T, r *Router) {},
			action: func(r *Router) error { return r.ViewPublic(link) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter()
			tc.setup(t, r)
			before := r.State()

			err := tc.action(r)
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, before, r.State())
		})
	}
}

func TestRouter_Reset(t *testing.T) {
	r := NewRouter()
	require.NoError(t, r.Analytics("e-1"))
	r.Reset()
	assert.Equal(t, State{Screen: ScreenList}, r.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "list", State{Screen: ScreenList}.String())
	assert.Equal(t, "wizard(create)", State{Screen: ScreenWizard, Mode: ModeCreate}.String())
	assert.Equal(t, "wizard(edit:e-1)", State{Screen: ScreenWizard, Mode: ModeEdit, EntryID: "e-1"}.String())
	assert.Equal(t, "detail(e-1)", State{Screen: ScreenDetail, EntryID: "e-1"}.String())
}
