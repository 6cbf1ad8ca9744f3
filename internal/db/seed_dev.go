package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Readers to commission on startup, e.g. from config.
	Readers []string

	// Badges to register, as cardID -> subjectID.
	Badges map[string]string
}

// SeedDev commissions a starter set of readers and badges so a fresh dev
// database can serve taps immediately.  Safe to call repeatedly.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	readers := opt.Readers
	if len(readers) == 0 {
		readers = []string{"reader-lobby"}
	}

	for _, readerID := range readers {
		if _, err := db.ExecContext(ctx, `
INSERT INTO readers(
  reader_id, location_id, display_name,
  enabled, commissioned_at_ms,
  created_at_ms, updated_at_ms
) VALUES (?, 'loc_dev', ?, 1, ?, ?, ?)
ON CONFLICT(reader_id) DO UPDATE SET
  enabled = 1,
  commissioned_at_ms = COALESCE(readers.commissioned_at_ms, excluded.commissioned_at_ms),
  revoked_at_ms = NULL,
  updated_at_ms = excluded.updated_at_ms;
`, readerID, readerID, now, now, now); err != nil {
			return fmt.Errorf("seed reader %s: %w", readerID, err)
		}
	}

	for cardID, subjectID := range opt.Badges {
		if _, err := db.ExecContext(ctx, `
INSERT INTO badges(card_id, subject_id, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?)
ON CONFLICT(card_id) DO UPDATE SET
  subject_id = excluded.subject_id,
  updated_at_ms = excluded.updated_at_ms;
`, cardID, subjectID, now, now); err != nil {
			return fmt.Errorf("seed badge %s: %w", cardID, err)
		}
	}

	return nil
}
