package service

import (
	"context"
	"strings"

	"github.com/evanmarcey/passage/internal/passage/store"
)

// IdentityResolver maps scanned card identifiers to subjects.  Read-only;
// badge administration is not this service's concern.
type IdentityResolver struct {
	store store.BadgeStore
}

func NewIdentityResolver(st store.BadgeStore) *IdentityResolver {
	return &IdentityResolver{store: st}
}

// ResolveByCard returns nil (not an error) for unknown cards — an
// unrecognized badge is an expected domain outcome.
func (r *IdentityResolver) ResolveByCard(ctx context.Context, cardID string) (*store.Badge, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, nil
	}
	return r.store.ResolveByCard(ctx, cardID)
}
