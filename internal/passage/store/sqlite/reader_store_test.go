package sqlite_test

import (
	"context"
	"testing"
	"time"

	sqlitestore "github.com/evanmarcey/passage/internal/passage/store/sqlite"
)

func TestReaderStore_Resolve_Registered(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedReader(t, conn, "reader-1")
	rs := sqlitestore.NewReaderStore(conn, w)

	r, err := rs.Resolve(context.Background(), "reader-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r == nil {
		t.Fatal("expected a row")
	}
	if !r.Registered {
		t.Error("expected commissioned+enabled reader to be registered")
	}
	if r.LocationID != "loc_test" {
		t.Errorf("expected location loc_test, got %q", r.LocationID)
	}
}

func TestReaderStore_Resolve_UnknownIsNil(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewReaderStore(conn, w)

	r, err := rs.Resolve(context.Background(), "reader-ghost")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil for unknown reader, got %+v", r)
	}
}

func TestReaderStore_Resolve_RevokedIsUnregistered(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedReader(t, conn, "reader-1")
	rs := sqlitestore.NewReaderStore(conn, w)
	ctx := context.Background()

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := conn.ExecContext(ctx,
		`UPDATE readers SET revoked_at_ms = ? WHERE reader_id = ?`, nowMs, "reader-1",
	); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	r, err := rs.Resolve(ctx, "reader-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r == nil {
		t.Fatal("expected the row to still exist")
	}
	if r.Registered {
		t.Error("expected revoked reader to be unregistered")
	}
}

func TestReaderStore_MarkSeen_CreatesUnregisteredRow(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewReaderStore(conn, w)
	ctx := context.Background()

	seen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := rs.MarkSeen(ctx, "reader-new", seen); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	r, err := rs.Resolve(ctx, "reader-new")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r == nil {
		t.Fatal("expected MarkSeen to create the row")
	}
	if r.Registered {
		t.Error("auto-created rows must start unregistered")
	}

	var lastSeen int64
	if err := conn.QueryRowContext(ctx,
		`SELECT last_seen_at_ms FROM readers WHERE reader_id = ?`, "reader-new",
	).Scan(&lastSeen); err != nil {
		t.Fatalf("query: %v", err)
	}
	if lastSeen != seen.UnixMilli() {
		t.Errorf("expected last_seen_at_ms=%d, got %d", seen.UnixMilli(), lastSeen)
	}
}
