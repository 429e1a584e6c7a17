package store

import "errors"

var (
	// ErrNoFiles is returned when a dataset is opened without file names.
	ErrNoFiles = errors.New("store: no files")
	// ErrStoreUnavailable wraps IO and format failures. It is fatal for a run.
	ErrStoreUnavailable = errors.New("store: unavailable")
	// ErrNotFound is returned when seeking past the last entry.
	ErrNotFound = errors.New("store: entry not found")
	// ErrSessionOpen is returned when opening a session that is already open.
	ErrSessionOpen = errors.New("store: session already open")
	// ErrSessionClosed is returned when seeking on a session that is not open.
	ErrSessionClosed = errors.New("store: session not open")
	// ErrKindConflict is returned when two files disagree on a column's kind.
	ErrKindConflict = errors.New("store: column kind conflict")
)
