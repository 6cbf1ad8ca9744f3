package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type ActiveSessionStore struct {
	q dbtx
}

// NewActiveSessionStore returns a store for standalone use (reads, and
// single-statement writes outside an atomic unit).
func NewActiveSessionStore(db *sql.DB) *ActiveSessionStore {
	return &ActiveSessionStore{q: db}
}

func (s *ActiveSessionStore) FindBySubject(ctx context.Context, subjectID string) (*store.ActiveSession, error) {
	var (
		rec       store.ActiveSession
		startedMs int64
	)
	err := s.q.QueryRowContext(ctx, `
SELECT active_session_id, subject_id, reader_id, session_id, started_at_ms
FROM active_sessions
WHERE subject_id = ?;
`, subjectID).Scan(&rec.ID, &rec.SubjectID, &rec.ReaderID, &rec.SessionID, &startedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindBySubject query: %w", err)
	}
	rec.StartedAt = time.UnixMilli(startedMs).UTC()
	return &rec, nil
}

func (s *ActiveSessionStore) Create(ctx context.Context, subjectID, readerID, sessionID string, startedAt time.Time) (store.ActiveSession, error) {
	rec := store.ActiveSession{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		ReaderID:  readerID,
		SessionID: sessionID,
		StartedAt: startedAt.UTC(),
	}

	_, err := s.q.ExecContext(ctx, `
INSERT INTO active_sessions(active_session_id, subject_id, reader_id, session_id, started_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.ID, rec.SubjectID, rec.ReaderID, rec.SessionID, rec.StartedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ActiveSession{}, fmt.Errorf("Create subject %s: %w", subjectID, store.ErrActiveSessionExists)
		}
		return store.ActiveSession{}, fmt.Errorf("Create insert: %w", err)
	}

	return rec, nil
}

func (s *ActiveSessionStore) Remove(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `
DELETE FROM active_sessions WHERE active_session_id = ?;
`, id); err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

func (s *ActiveSessionStore) ListOpen(ctx context.Context) ([]store.ActiveSession, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT active_session_id, subject_id, reader_id, session_id, started_at_ms
FROM active_sessions
ORDER BY started_at_ms, subject_id;
`)
	if err != nil {
		return nil, fmt.Errorf("ListOpen query: %w", err)
	}
	defer rows.Close()

	var out []store.ActiveSession
	for rows.Next() {
		var (
			rec       store.ActiveSession
			startedMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.SubjectID, &rec.ReaderID, &rec.SessionID, &startedMs); err != nil {
			return nil, fmt.Errorf("ListOpen scan: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOpen rows: %w", err)
	}
	return out, nil
}
