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

func TestInteractionStore_Append_ColumnsCorrect(t *testing.T) {
	conn := openTestDB(t)
	seedReader(t, conn, "reader-1")
	is := sqlitestore.NewInteractionStore(conn)
	ctx := context.Background()

	tapped := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	subjectID := "subj-1"

	rec, err := is.Append(ctx, store.Interaction{
		ReaderID:  "reader-1",
		SubjectID: &subjectID,
		CardID:    "C-100",
		TappedAt:  tapped,
		Outcome:   types.OutcomeEntry,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected a generated id")
	}
	if rec.RecordedAt.IsZero() {
		t.Error("expected RecordedAt to be defaulted")
	}

	var (
		subject  sql.NullString
		cardID   string
		tappedMs int64
		outcome  string
	)
	err = conn.QueryRowContext(ctx, `
SELECT subject_id, card_id, tapped_at_ms, outcome
FROM interactions WHERE interaction_id = ?`, rec.ID,
	).Scan(&subject, &cardID, &tappedMs, &outcome)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if !subject.Valid || subject.String != "subj-1" {
		t.Errorf("expected subject_id=subj-1, got %v", subject)
	}
	if cardID != "C-100" {
		t.Errorf("expected card_id=C-100, got %q", cardID)
	}
	if tappedMs != tapped.UnixMilli() {
		t.Errorf("expected tapped_at_ms=%d, got %d", tapped.UnixMilli(), tappedMs)
	}
	if outcome != "entry" {
		t.Errorf("expected outcome=entry, got %q", outcome)
	}
}

func TestInteractionStore_Append_NullSubjectForFallback(t *testing.T) {
	conn := openTestDB(t)
	seedReader(t, conn, "reader-1")
	is := sqlitestore.NewInteractionStore(conn)
	ctx := context.Background()

	rec, err := is.Append(ctx, store.Interaction{
		ReaderID: "reader-1",
		CardID:   "C-404",
		TappedAt: time.Now().UTC(),
		Outcome:  types.OutcomeFallback,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	var subject sql.NullString
	err = conn.QueryRowContext(ctx,
		`SELECT subject_id FROM interactions WHERE interaction_id = ?`, rec.ID,
	).Scan(&subject)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if subject.Valid {
		t.Errorf("expected subject_id NULL, got %q", subject.String)
	}
}

func TestInteractionStore_AppendOnly(t *testing.T) {
	conn := openTestDB(t)
	seedReader(t, conn, "reader-1")
	is := sqlitestore.NewInteractionStore(conn)
	ctx := context.Background()

	tapped := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := is.Append(ctx, store.Interaction{
			ReaderID: "reader-1",
			CardID:   "C-100",
			TappedAt: tapped.Add(time.Duration(i) * time.Second),
			Outcome:  types.OutcomeFallback,
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	var count int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE reader_id = ?`, "reader-1",
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows (append-only), got %d", count)
	}
}
