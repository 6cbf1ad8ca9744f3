package service

import (
	"context"
	"strings"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
)

// ReaderDirectory validates reader ids against the registered set and
// tracks when each reader last contacted the server.
type ReaderDirectory struct {
	store store.ReaderStore
}

func NewReaderDirectory(st store.ReaderStore) *ReaderDirectory {
	return &ReaderDirectory{store: st}
}

func (d *ReaderDirectory) Resolve(ctx context.Context, readerID string) (*store.Reader, error) {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil, nil
	}
	return d.store.Resolve(ctx, readerID)
}

func (d *ReaderDirectory) NoteSeen(ctx context.Context, readerID string) error {
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil
	}
	return d.store.MarkSeen(ctx, readerID, time.Now().UTC())
}
