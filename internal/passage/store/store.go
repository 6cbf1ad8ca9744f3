package store

import (
	"context"
	"errors"
)

var (
	// ErrActiveSessionExists is returned by ActiveSessionStore.Create when
	// the subject already has an open presence.  Backed by a unique key on
	// subject id so the store rejects the loser of a concurrent race rather
	// than silently duplicating state.
	ErrActiveSessionExists = errors.New("subject already has an active session")

	// ErrSessionNotFound is returned by SessionStore.Close and Get when no
	// session with the given id exists.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned by SessionStore.Close when the session
	// already has an end time.
	ErrSessionClosed = errors.New("session already closed")
)

// Stores bundles transaction-scoped access to the three presence tables.
// A Stores value handed to an Atomic callback is only valid for the
// duration of that callback.
type Stores interface {
	ActiveSessions() ActiveSessionStore
	Sessions() SessionStore
	Interactions() InteractionStore
}

// Runner executes fn as a single atomic unit of work.  If fn returns an
// error every mutation made through its Stores is rolled back.  Units
// against the same backing database are serialized, which is what
// linearizes same-subject taps.
type Runner interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
