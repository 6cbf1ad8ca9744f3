package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type SessionStore struct {
	q dbtx
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{q: db}
}

func (s *SessionStore) Open(ctx context.Context, subjectID, readerID string, startedAt time.Time) (store.Session, error) {
	rec := store.Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		ReaderID:  readerID,
		StartedAt: startedAt.UTC(),
	}

	if _, err := s.q.ExecContext(ctx, `
INSERT INTO sessions(session_id, subject_id, reader_id, started_at_ms, ended_at_ms, created_at_ms)
VALUES (?, ?, ?, ?, NULL, ?);
`, rec.ID, rec.SubjectID, rec.ReaderID, rec.StartedAt.UnixMilli(), time.Now().UTC().UnixMilli()); err != nil {
		return store.Session{}, fmt.Errorf("Open insert: %w", err)
	}

	return rec, nil
}

// Close sets the end time of an in-progress session.  The WHERE clause
// only matches open rows, so a second close is rejected instead of
// rewriting history.
func (s *SessionStore) Close(ctx context.Context, sessionID string, endedAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `
UPDATE sessions
SET ended_at_ms = ?
WHERE session_id = ? AND ended_at_ms IS NULL;
`, endedAt.UTC().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("Close update: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Close rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: distinguish "missing" from "already closed".
	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("Close %s: %w", sessionID, store.ErrSessionNotFound)
	}
	return fmt.Errorf("Close %s: %w", sessionID, store.ErrSessionClosed)
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	var (
		rec       store.Session
		startedMs int64
		endedMs   sql.NullInt64
	)
	err := s.q.QueryRowContext(ctx, `
SELECT session_id, subject_id, reader_id, started_at_ms, ended_at_ms
FROM sessions
WHERE session_id = ?;
`, sessionID).Scan(&rec.ID, &rec.SubjectID, &rec.ReaderID, &startedMs, &endedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get query: %w", err)
	}

	rec.StartedAt = time.UnixMilli(startedMs).UTC()
	if endedMs.Valid {
		t := time.UnixMilli(endedMs.Int64).UTC()
		rec.EndedAt = &t
	}
	return &rec, nil
}
