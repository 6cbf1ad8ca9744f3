package memory

import (
	"context"
	"sync"
	"time"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type HeartbeatStore struct {
	mu   sync.Mutex
	data map[string]store.HeartbeatRecord
}

func NewHeartbeatStore() *HeartbeatStore {
	return &HeartbeatStore{
		data: make(map[string]store.HeartbeatRecord),
	}
}

func (s *HeartbeatStore) RecordHeartbeat(_ context.Context, readerID string, rec store.HeartbeatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.data[readerID] = rec
	return nil
}

func (s *HeartbeatStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for readerID, rec := range s.data {
		if rec.ReceivedAt.Before(cutoff) {
			delete(s.data, readerID)
			deleted++
		}
	}
	return deleted, nil
}
