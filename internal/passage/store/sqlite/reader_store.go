package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/evanmarcey/passage/internal/db"
	"github.com/evanmarcey/passage/internal/passage/store"
)

type ReaderStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewReaderStore(db *sql.DB, writer *dbpkg.Worker) *ReaderStore {
	return &ReaderStore{db: db, writer: writer}
}

// Resolve: "registered" means commissioned + enabled + not revoked.  A row
// that exists but fails that test is returned with Registered=false so
// callers can distinguish revoked readers from never-seen ones if needed.
func (s *ReaderStore) Resolve(ctx context.Context, readerID string) (*store.Reader, error) {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil, nil
	}

	var (
		locationID   sql.NullString
		enabled      int
		commissioned sql.NullInt64
		revoked      sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT location_id, enabled, commissioned_at_ms, revoked_at_ms
FROM readers
WHERE reader_id = ?;
`, readerID).Scan(&locationID, &enabled, &commissioned, &revoked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Resolve query: %w", err)
	}

	return &store.Reader{
		ReaderID:   readerID,
		LocationID: locationID.String,
		Registered: enabled == 1 && commissioned.Valid && !revoked.Valid,
	}, nil
}

// MarkSeen: ensure the reader row exists (even if unregistered) and update
// last_seen.  Unregistered readers start disabled/uncommissioned.
func (s *ReaderStore) MarkSeen(ctx context.Context, readerID string, t time.Time) error {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureReader(ctx, tx, readerID, ms); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE readers
SET last_seen_at_ms = ?,
    updated_at_ms   = ?
WHERE reader_id = ?;
`, ms, ms, readerID); err != nil {
			return fmt.Errorf("MarkSeen update reader: %w", err)
		}

		return nil
	})
}

// ensureReader guarantees a readers row exists for readerID so that
// foreign-key constraints from heartbeats, sessions and interactions are
// satisfied.  New rows start disabled and uncommissioned; only an admin
// action (or the dev seeder) registers a reader.
//
// Must be called inside an existing transaction.
func ensureReader(ctx context.Context, tx *sql.Tx, readerID string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO readers(reader_id, enabled, created_at_ms, updated_at_ms)
VALUES (?, 0, ?, ?);
`, readerID, nowMs, nowMs); err != nil {
		return fmt.Errorf("ensureReader %s: %w", readerID, err)
	}
	return nil
}
