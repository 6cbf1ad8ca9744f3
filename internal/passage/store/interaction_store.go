package store

import (
	"context"
	"time"

	"github.com/evanmarcey/passage/internal/passage/types"
)

// Interaction is the immutable audit record of a single tap.  One row is
// appended for every tap regardless of outcome; SubjectID is nil when the
// card could not be resolved.
type Interaction struct {
	ID         string
	ReaderID   string
	SubjectID  *string
	CardID     string
	TappedAt   time.Time
	Outcome    types.Outcome
	RecordedAt time.Time
}

// InteractionStore persists taps as an append-only audit log.  No update
// or delete capability is exposed anywhere.
type InteractionStore interface {
	Append(ctx context.Context, rec Interaction) (Interaction, error)
}
