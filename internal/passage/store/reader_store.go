package store

import (
	"context"
	"time"
)

// Reader is a fixed physical access point.  Registered means the reader
// has been commissioned, is enabled, and has not been revoked.
type Reader struct {
	ReaderID   string
	LocationID string
	Registered bool
}

type ReaderStore interface {
	// Resolve returns the reader by id, or nil when no such reader exists.
	Resolve(ctx context.Context, readerID string) (*Reader, error)

	// MarkSeen records that the reader contacted the server, creating an
	// unregistered row for first-time callers.
	MarkSeen(ctx context.Context, readerID string, t time.Time) error
}
