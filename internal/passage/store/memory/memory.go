// Package memory holds in-memory store implementations for tests and dev
// environments.  Store provides the same atomic-unit semantics as the
// sqlite runner: mutations made inside Atomic are rolled back when the
// callback fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evanmarcey/passage/internal/passage/store"
)

type state struct {
	activeBySubject map[string]store.ActiveSession
	sessions        map[string]store.Session
	interactions    []store.Interaction
}

func newState() *state {
	return &state{
		activeBySubject: make(map[string]store.ActiveSession),
		sessions:        make(map[string]store.Session),
	}
}

func (st *state) clone() *state {
	c := &state{
		activeBySubject: make(map[string]store.ActiveSession, len(st.activeBySubject)),
		sessions:        make(map[string]store.Session, len(st.sessions)),
		interactions:    make([]store.Interaction, len(st.interactions)),
	}
	for k, v := range st.activeBySubject {
		c.activeBySubject[k] = v
	}
	for k, v := range st.sessions {
		c.sessions[k] = v
	}
	copy(c.interactions, st.interactions)
	return c
}

// Store implements store.Runner and store.Stores over plain maps.  One
// mutex serializes all units, mirroring the single-writer worker the
// sqlite implementation uses.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, ss store.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.st.clone()
	if err := fn(ctx, &views{st: s.st}); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// Locked accessors for use outside Atomic.

func (s *Store) ActiveSessions() store.ActiveSessionStore { return lockedActive{s} }
func (s *Store) Sessions() store.SessionStore             { return lockedSessions{s} }
func (s *Store) Interactions() store.InteractionStore     { return lockedInteractions{s} }

// AuditTrail returns a copy of every appended interaction.  Test-only helper.
func (s *Store) AuditTrail() []store.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Interaction, len(s.st.interactions))
	copy(out, s.st.interactions)
	return out
}

// SessionsBySubject returns the subject's ledger rows ordered by start
// time.  Test-only helper.
func (s *Store) SessionsBySubject(subjectID string) []store.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Session
	for _, sess := range s.st.sessions {
		if sess.SubjectID == subjectID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// views hands raw (unlocked) accessors to an Atomic callback; the Store
// mutex is already held for the whole unit.
type views struct {
	st *state
}

func (v *views) ActiveSessions() store.ActiveSessionStore { return activeView{v.st} }
func (v *views) Sessions() store.SessionStore             { return sessionView{v.st} }
func (v *views) Interactions() store.InteractionStore     { return interactionView{v.st} }

// ── ActiveSessionStore ───────────────────────────────────────────────────────

type activeView struct{ st *state }

func (v activeView) FindBySubject(_ context.Context, subjectID string) (*store.ActiveSession, error) {
	rec, ok := v.st.activeBySubject[subjectID]
	if !ok {
		return nil, nil
	}
	c := rec
	return &c, nil
}

func (v activeView) Create(_ context.Context, subjectID, readerID, sessionID string, startedAt time.Time) (store.ActiveSession, error) {
	if _, ok := v.st.activeBySubject[subjectID]; ok {
		return store.ActiveSession{}, store.ErrActiveSessionExists
	}
	rec := store.ActiveSession{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		ReaderID:  readerID,
		SessionID: sessionID,
		StartedAt: startedAt.UTC(),
	}
	v.st.activeBySubject[subjectID] = rec
	return rec, nil
}

func (v activeView) Remove(_ context.Context, id string) error {
	for subjectID, rec := range v.st.activeBySubject {
		if rec.ID == id {
			delete(v.st.activeBySubject, subjectID)
			return nil
		}
	}
	return nil
}

func (v activeView) ListOpen(_ context.Context) ([]store.ActiveSession, error) {
	out := make([]store.ActiveSession, 0, len(v.st.activeBySubject))
	for _, rec := range v.st.activeBySubject {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// ── SessionStore ─────────────────────────────────────────────────────────────

type sessionView struct{ st *state }

func (v sessionView) Open(_ context.Context, subjectID, readerID string, startedAt time.Time) (store.Session, error) {
	rec := store.Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		ReaderID:  readerID,
		StartedAt: startedAt.UTC(),
	}
	v.st.sessions[rec.ID] = rec
	return rec, nil
}

func (v sessionView) Close(_ context.Context, sessionID string, endedAt time.Time) error {
	rec, ok := v.st.sessions[sessionID]
	if !ok {
		return store.ErrSessionNotFound
	}
	if rec.EndedAt != nil {
		return store.ErrSessionClosed
	}
	t := endedAt.UTC()
	rec.EndedAt = &t
	v.st.sessions[sessionID] = rec
	return nil
}

func (v sessionView) Get(_ context.Context, sessionID string) (*store.Session, error) {
	rec, ok := v.st.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	c := rec
	return &c, nil
}

// ── InteractionStore ─────────────────────────────────────────────────────────

type interactionView struct{ st *state }

func (v interactionView) Append(_ context.Context, rec store.Interaction) (store.Interaction, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	rec.TappedAt = rec.TappedAt.UTC()
	v.st.interactions = append(v.st.interactions, rec)
	return rec, nil
}

// ── Locked wrappers ──────────────────────────────────────────────────────────

type lockedActive struct{ s *Store }

func (l lockedActive) FindBySubject(ctx context.Context, subjectID string) (*store.ActiveSession, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return activeView{l.s.st}.FindBySubject(ctx, subjectID)
}

func (l lockedActive) Create(ctx context.Context, subjectID, readerID, sessionID string, startedAt time.Time) (store.ActiveSession, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return activeView{l.s.st}.Create(ctx, subjectID, readerID, sessionID, startedAt)
}

func (l lockedActive) Remove(ctx context.Context, id string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return activeView{l.s.st}.Remove(ctx, id)
}

func (l lockedActive) ListOpen(ctx context.Context) ([]store.ActiveSession, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return activeView{l.s.st}.ListOpen(ctx)
}

type lockedSessions struct{ s *Store }

func (l lockedSessions) Open(ctx context.Context, subjectID, readerID string, startedAt time.Time) (store.Session, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return sessionView{l.s.st}.Open(ctx, subjectID, readerID, startedAt)
}

func (l lockedSessions) Close(ctx context.Context, sessionID string, endedAt time.Time) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return sessionView{l.s.st}.Close(ctx, sessionID, endedAt)
}

func (l lockedSessions) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return sessionView{l.s.st}.Get(ctx, sessionID)
}

type lockedInteractions struct{ s *Store }

func (l lockedInteractions) Append(ctx context.Context, rec store.Interaction) (store.Interaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return interactionView{l.s.st}.Append(ctx, rec)
}
