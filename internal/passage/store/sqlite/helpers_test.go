package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/evanmarcey/passage/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedReader commissions a reader so FK constraints on sessions,
// interactions and heartbeats are satisfied.
func seedReader(t *testing.T, conn *sql.DB, readerID string) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO readers(reader_id, location_id, enabled, commissioned_at_ms, created_at_ms, updated_at_ms)
VALUES (?, 'loc_test', 1, ?, ?, ?);`, readerID, nowMs, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seed reader %s: %v", readerID, err)
	}
}

// seedBadge registers a card for a subject.  A zero expiresAt means the
// badge never expires.
func seedBadge(t *testing.T, conn *sql.DB, cardID, subjectID string, expiresAt time.Time) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	var expiresMs any
	if !expiresAt.IsZero() {
		expiresMs = expiresAt.UTC().UnixMilli()
	}
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO badges(card_id, subject_id, access_expires_at_ms, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);`, cardID, subjectID, expiresMs, nowMs, nowMs)
	if err != nil {
		t.Fatalf("seed badge %s: %v", cardID, err)
	}
}
