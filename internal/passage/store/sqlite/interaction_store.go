package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type InteractionStore struct {
	q dbtx
}

func NewInteractionStore(db *sql.DB) *InteractionStore {
	return &InteractionStore{q: db}
}

// Append inserts one audit row.  There is deliberately no update or delete
// counterpart anywhere in this package.
func (s *InteractionStore) Append(ctx context.Context, rec store.Interaction) (store.Interaction, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	rec.TappedAt = rec.TappedAt.UTC()

	var subjectID any
	if rec.SubjectID != nil {
		subjectID = *rec.SubjectID
	}

	if _, err := s.q.ExecContext(ctx, `
INSERT INTO interactions(interaction_id, reader_id, subject_id, card_id, tapped_at_ms, outcome, recorded_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);
`,
		rec.ID, rec.ReaderID, subjectID, rec.CardID,
		rec.TappedAt.UnixMilli(), string(rec.Outcome), rec.RecordedAt.UnixMilli(),
	); err != nil {
		return store.Interaction{}, fmt.Errorf("Append insert: %w", err)
	}

	return rec, nil
}
