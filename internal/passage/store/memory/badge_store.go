package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type BadgeStore struct {
	mu     sync.RWMutex
	badges map[string]store.Badge
}

// NewBadgeStore seeds the identity lookup with known badges.
func NewBadgeStore(badges []store.Badge) *BadgeStore {
	m := make(map[string]store.Badge, len(badges))
	for _, b := range badges {
		id := strings.TrimSpace(b.CardID)
		if id == "" {
			continue
		}
		b.CardID = id
		m[id] = b
	}
	return &BadgeStore{badges: m}
}

func (s *BadgeStore) ResolveByCard(_ context.Context, cardID string) (*store.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.badges[strings.TrimSpace(cardID)]
	if !ok {
		return nil, nil
	}
	c := rec
	return &c, nil
}
