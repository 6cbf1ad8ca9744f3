package store

import (
	"context"
	"time"
)

// ActiveSession is the current-presence pointer for a subject: "subject X
// is inside, having entered through reader Y".  At most one row exists per
// subject id at any time; that invariant is enforced here, not by callers.
type ActiveSession struct {
	ID        string
	SubjectID string
	ReaderID  string
	SessionID string // the ledger row this presence belongs to
	StartedAt time.Time
}

type ActiveSessionStore interface {
	// FindBySubject returns the subject's open presence, or nil when the
	// subject is not inside.
	FindBySubject(ctx context.Context, subjectID string) (*ActiveSession, error)

	// Create opens a presence for the subject.  Returns
	// ErrActiveSessionExists when the subject already has one.
	Create(ctx context.Context, subjectID, readerID, sessionID string, startedAt time.Time) (ActiveSession, error)

	// Remove deletes the presence row by its id.
	Remove(ctx context.Context, id string) error

	// ListOpen returns every open presence, ordered by start time.
	ListOpen(ctx context.Context) ([]ActiveSession, error)
}
