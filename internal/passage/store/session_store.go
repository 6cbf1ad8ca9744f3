package store

import (
	"context"
	"time"
)

// Session is one historical stay: opened at entry, closed at exit.  Rows
// are never deleted; the ledger is the authoritative history independent
// of the active-session cache.
type Session struct {
	ID        string
	SubjectID string
	ReaderID  string
	StartedAt time.Time
	EndedAt   *time.Time // nil while the stay is ongoing
}

type SessionStore interface {
	// Open appends a new in-progress session to the ledger.
	Open(ctx context.Context, subjectID, readerID string, startedAt time.Time) (Session, error)

	// Close sets the session's end time.  Returns ErrSessionNotFound when
	// the id is unknown and ErrSessionClosed when the end time is already
	// set.
	Close(ctx context.Context, sessionID string, endedAt time.Time) error

	// Get returns the session by id, or nil when it does not exist.
	Get(ctx context.Context, sessionID string) (*Session, error)
}
