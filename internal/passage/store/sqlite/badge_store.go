package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
)

// BadgeStore is the read-only identity lookup.  Badge administration lives
// outside this service; taps only ever consult it.
type BadgeStore struct {
	db *sql.DB
}

func NewBadgeStore(db *sql.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

func (s *BadgeStore) ResolveByCard(ctx context.Context, cardID string) (*store.Badge, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, nil
	}

	var (
		subjectID string
		expiresMs sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT subject_id, access_expires_at_ms
FROM badges
WHERE card_id = ?;
`, cardID).Scan(&subjectID, &expiresMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ResolveByCard query: %w", err)
	}

	badge := &store.Badge{
		CardID:    cardID,
		SubjectID: subjectID,
	}
	if expiresMs.Valid {
		t := time.UnixMilli(expiresMs.Int64).UTC()
		badge.AccessExpiresAt = &t
	}
	return badge, nil
}
