package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
	sqlitestore "github.com/evanmarcey/passage/internal/passage/store/sqlite"
	"github.com/evanmarcey/passage/internal/passage/types"
)

func TestHeartbeatStore_RecordUpdatesSnapshot(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedReader(t, conn, "reader-1")
	hs := sqlitestore.NewHeartbeatStore(conn, w)
	ctx := context.Background()

	rssi := -61
	recv := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err := hs.RecordHeartbeat(ctx, "reader-1", store.HeartbeatRecord{
		ReceivedAt: recv,
		Request: types.HeartbeatRequest{
			ReaderID:        "reader-1",
			FirmwareVersion: "1.4.2",
			UptimeSeconds:   3600,
			RSSIDbm:         &rssi,
			IP:              "10.0.0.7",
		},
	})
	if err != nil {
		t.Fatalf("RecordHeartbeat: %v", err)
	}

	var count int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reader_heartbeats WHERE reader_id = ?`, "reader-1",
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 heartbeat row, got %d", count)
	}

	var (
		lastSeen sql.NullInt64
		lastIP   sql.NullString
		lastFW   sql.NullString
		lastRSSI sql.NullInt64
	)
	err = conn.QueryRowContext(ctx, `
SELECT last_seen_at_ms, last_ip, last_fw_version, last_rssi_dbm
FROM readers WHERE reader_id = ?`, "reader-1",
	).Scan(&lastSeen, &lastIP, &lastFW, &lastRSSI)
	if err != nil {
		t.Fatalf("snapshot query: %v", err)
	}
	if !lastSeen.Valid || lastSeen.Int64 != recv.UnixMilli() {
		t.Errorf("expected last_seen_at_ms=%d, got %v", recv.UnixMilli(), lastSeen)
	}
	if lastIP.String != "10.0.0.7" || lastFW.String != "1.4.2" {
		t.Errorf("snapshot not updated: ip=%q fw=%q", lastIP.String, lastFW.String)
	}
	if !lastRSSI.Valid || lastRSSI.Int64 != -61 {
		t.Errorf("expected rssi -61, got %v", lastRSSI)
	}
}

func TestHeartbeatStore_RecordUnknownReaderAutoCreates(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	hs := sqlitestore.NewHeartbeatStore(conn, w)
	ctx := context.Background()

	err := hs.RecordHeartbeat(ctx, "reader-stray", store.HeartbeatRecord{
		ReceivedAt: time.Now().UTC(),
		Request:    types.HeartbeatRequest{ReaderID: "reader-stray"},
	})
	if err != nil {
		t.Fatalf("RecordHeartbeat: %v", err)
	}

	var enabled int
	if err := conn.QueryRowContext(ctx,
		`SELECT enabled FROM readers WHERE reader_id = ?`, "reader-stray",
	).Scan(&enabled); err != nil {
		t.Fatalf("expected an auto-created readers row: %v", err)
	}
	if enabled != 0 {
		t.Error("auto-created reader must start disabled")
	}
}

func TestHeartbeatStore_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedReader(t, conn, "reader-1")
	hs := sqlitestore.NewHeartbeatStore(conn, w)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := hs.RecordHeartbeat(ctx, "reader-1", store.HeartbeatRecord{
			ReceivedAt: base.Add(time.Duration(i) * 24 * time.Hour),
			Request:    types.HeartbeatRequest{ReaderID: "reader-1"},
		})
		if err != nil {
			t.Fatalf("RecordHeartbeat %d: %v", i, err)
		}
	}

	deleted, err := hs.PruneOlderThan(ctx, base.Add(3*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	var remaining int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reader_heartbeats`,
	).Scan(&remaining); err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 2 {
		t.Errorf("expected 2 remaining, got %d", remaining)
	}
}
