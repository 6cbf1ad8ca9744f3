package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type ReaderStore struct {
	mu      sync.RWMutex
	readers map[string]store.Reader
	seen    map[string]time.Time
}

// NewReaderStore seeds the directory with registered readers.
func NewReaderStore(readers []store.Reader) *ReaderStore {
	m := make(map[string]store.Reader, len(readers))
	for _, r := range readers {
		id := strings.TrimSpace(r.ReaderID)
		if id == "" {
			continue
		}
		r.ReaderID = id
		m[id] = r
	}
	return &ReaderStore{
		readers: m,
		seen:    make(map[string]time.Time),
	}
}

func (s *ReaderStore) Resolve(_ context.Context, readerID string) (*store.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.readers[strings.TrimSpace(readerID)]
	if !ok {
		return nil, nil
	}
	c := rec
	return &c, nil
}

func (s *ReaderStore) MarkSeen(_ context.Context, readerID string, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[strings.TrimSpace(readerID)] = t
	return nil
}
