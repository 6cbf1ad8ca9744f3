package store

import (
	"context"
	"time"
)

// Badge maps a raw card identifier to a subject.  AccessExpiresAt is nil
// for badges that never expire.
type Badge struct {
	CardID          string
	SubjectID       string
	AccessExpiresAt *time.Time
}

// BadgeStore is the read-only identity lookup consulted on every tap.
type BadgeStore interface {
	// ResolveByCard returns the badge for the card, or nil when the card
	// is unknown.
	ResolveByCard(ctx context.Context, cardID string) (*Badge, error)
}
