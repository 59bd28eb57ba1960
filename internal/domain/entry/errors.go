package entry

import "errors"

// ErrInactive is returned when a scan targets a deactivated entry
var ErrInactive = errors.New("entry is inactive")

// ErrNotFound indicates an operation targeted an id absent from the store
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	return "entry not found: " + e.ID
}

// Is matches any ErrNotFound when the target carries no id.
func (e ErrNotFound) Is(target error) bool {
	t, ok := target.(ErrNotFound)
	if !ok {
		return false
	}
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}

// ValidationError indicates a missing or malformed field on save
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

// StorageReadError indicates the persisted list was missing or unreadable.
// The store falls back to an empty list.
type StorageReadError struct {
	Key string
	Err error
}

func (e StorageReadError) Error() string {
	return "failed to read stored entries under " + e.Key + ": " + e.Err.Error()
}

func (e StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError indicates the durable mirror could not be overwritten.
// The in-memory change it accompanies has been applied regardless.
type StorageWriteError struct {
	Key string
	Err error
}

func (e StorageWriteError) Error() string {
	return "failed to persist entries under " + e.Key + ": " + e.Err.Error()
}

func (e StorageWriteError) Unwrap() error { return e.Err }
