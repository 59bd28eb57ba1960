package scan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corp-qr-hub/internal/domain/entry"
)

func TestNewRecorded(t *testing.T) {
	lit, err := entry.NewLiteral(entry.KindLink, "https://a.test")
	require.NoError(t, err)
	e := entry.Entry{ID: "entry-1", Payload: lit}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	r := NewRecorded(e, entry.ScanEvent{Timestamp: ts, Device: entry.DeviceMobile}, "corr-1")

	assert.NotEmpty(t, r.EventID)
	assert.Equal(t, "entry-1", r.EntryID)
	assert.Equal(t, entry.KindLink, r.Kind)
	assert.Equal(t, entry.DeviceMobile, r.Device)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, "corr-1", r.CorrelationID)
	assert.NoError(t, r.Validate())

	other := NewRecorded(e, entry.ScanEvent{Timestamp: ts}, "")
	assert.NotEqual(t, r.EventID, other.EventID)
}

func TestRecorded_Validate(t *testing.T) {
	assert.ErrorIs(t, Recorded{EntryID: "e"}.Validate(), ErrMissingEventID)
	assert.ErrorIs(t, Recorded{EventID: "x"}.Validate(), ErrMissingEntryID)
}

func TestErrDuplicateEvent_Is(t *testing.T) {
	err := ErrDuplicateEvent{EventID: "evt"}
	assert.True(t, errors.Is(err, ErrDuplicateEvent{}))
	assert.True(t, errors.Is(err, ErrDuplicateEvent{EventID: "evt"}))
	assert.False(t, errors.Is(err, ErrDuplicateEvent{EventID: "other"}))
	assert.False(t, errors.Is(err, ErrMissingEventID))
}
